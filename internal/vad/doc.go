// Package vad provides spectral Voice Activity Detection over decoded sample buffers.
// It classifies audio into speech segments using sliding-window frequency-band energy
// ratios with a per-call adaptive threshold and min-speech/min-silence hysteresis.
package vad
