// Package config provides YAML configuration loading and validation for the
// transcription core: VAD presets and overrides, diarizer and timeline
// tunables, cache bounds, and logging.
package config
