// Package audio decodes WAV recordings into normalized float sample buffers,
// splits stereo channels, and exports turn audio back to WAV. It is the
// production decode collaborator injected into the sample cache.
package audio
