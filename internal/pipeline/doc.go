// Package pipeline orchestrates the transcription core: per-channel VAD in
// parallel, stereo diarization and turn merging, and timeline compression.
// Recognition itself is delegated to an injected Transcriber collaborator.
package pipeline
