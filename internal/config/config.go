package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jorikfon/TranscribeIt-sub001/internal/vad"
)

// Preset names for the VAD parameter profiles.
const (
	PresetWideband  = "wideband"
	PresetTelephone = "telephone"
)

// Config represents the complete core configuration.
type Config struct {
	VAD           VADConfig           `yaml:"vad"`
	Diarizer      DiarizerConfig      `yaml:"diarizer"`
	Timeline      TimelineConfig      `yaml:"timeline"`
	Cache         CacheConfig         `yaml:"cache"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// VADConfig selects a detection preset and optionally overrides its values.
// Zero-valued fields keep the preset defaults.
type VADConfig struct {
	Preset             string  `yaml:"preset"`
	FFTSize            int     `yaml:"fft_size"`
	MinSpeechDuration  float64 `yaml:"min_speech_duration"`  // seconds
	MinSilenceDuration float64 `yaml:"min_silence_duration"` // seconds
	SpeechFreqMin      float64 `yaml:"speech_freq_min"`      // Hz
	SpeechFreqMax      float64 `yaml:"speech_freq_max"`      // Hz
	SpeechEnergyRatio  float64 `yaml:"speech_energy_ratio"`
}

// DiarizerConfig contains the segment merging parameters.
type DiarizerConfig struct {
	MergeGap float64 `yaml:"merge_gap"` // seconds
}

// TimelineConfig contains the silence-compression parameters.
type TimelineConfig struct {
	MinGapDuration            float64 `yaml:"min_gap_duration"`            // seconds
	CompressedDisplayDuration float64 `yaml:"compressed_display_duration"` // seconds
}

// CacheConfig contains the sample cache resource bounds.
type CacheConfig struct {
	MaxAgeSeconds int   `yaml:"max_age_seconds"`
	MaxEntries    int   `yaml:"max_entries"`
	MaxBytes      int64 `yaml:"max_bytes"`
}

// TranscriptionConfig contains the speech-to-text collaborator settings.
// An empty endpoint leaves recognition disabled; the pipeline then produces
// turns without text.
type TranscriptionConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	Language       string `yaml:"language"`
	Model          string `yaml:"model"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		VAD: VADConfig{
			Preset: PresetWideband,
		},
		Diarizer: DiarizerConfig{
			MergeGap: 1.0,
		},
		Timeline: TimelineConfig{
			MinGapDuration:            2.0,
			CompressedDisplayDuration: 0.15,
		},
		Cache: CacheConfig{
			MaxAgeSeconds: 300,
			MaxEntries:    8,
			MaxBytes:      512 << 20,
		},
		Transcription: TranscriptionConfig{
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration.
func (c *Config) Validate() error {
	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.Diarizer.Validate(); err != nil {
		return fmt.Errorf("diarizer config: %w", err)
	}

	if err := c.Timeline.Validate(); err != nil {
		return fmt.Errorf("timeline config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates VAD configuration. Sample-rate-dependent checks happen
// at detector construction, once the recording's rate is known.
func (v *VADConfig) Validate() error {
	if v.Preset != PresetWideband && v.Preset != PresetTelephone {
		return fmt.Errorf("preset must be '%s' or '%s', got '%s'", PresetWideband, PresetTelephone, v.Preset)
	}

	if v.FFTSize < 0 {
		return fmt.Errorf("fft_size cannot be negative, got %d", v.FFTSize)
	}

	if v.MinSpeechDuration < 0 {
		return fmt.Errorf("min_speech_duration cannot be negative, got %f", v.MinSpeechDuration)
	}

	if v.MinSilenceDuration < 0 {
		return fmt.Errorf("min_silence_duration cannot be negative, got %f", v.MinSilenceDuration)
	}

	if v.SpeechFreqMin < 0 || v.SpeechFreqMax < 0 {
		return fmt.Errorf("speech band bounds cannot be negative, got [%f, %f]", v.SpeechFreqMin, v.SpeechFreqMax)
	}

	if v.SpeechEnergyRatio < 0 || v.SpeechEnergyRatio > 1 {
		return fmt.Errorf("speech_energy_ratio must be between 0 and 1, got %f", v.SpeechEnergyRatio)
	}

	return nil
}

// Params builds detector parameters for a recording at the given sample rate:
// the selected preset with any non-zero overrides applied.
func (v *VADConfig) Params(sampleRate int) vad.Params {
	var params vad.Params
	switch v.Preset {
	case PresetTelephone:
		params = vad.TelephoneParams(sampleRate)
	default:
		params = vad.WidebandParams(sampleRate)
	}

	if v.FFTSize > 0 {
		params.FFTSize = v.FFTSize
	}
	if v.MinSpeechDuration > 0 {
		params.MinSpeechDuration = v.MinSpeechDuration
	}
	if v.MinSilenceDuration > 0 {
		params.MinSilenceDuration = v.MinSilenceDuration
	}
	if v.SpeechFreqMin > 0 {
		params.SpeechFreqMin = v.SpeechFreqMin
	}
	if v.SpeechFreqMax > 0 {
		params.SpeechFreqMax = v.SpeechFreqMax
	}
	if v.SpeechEnergyRatio > 0 {
		params.SpeechEnergyRatio = v.SpeechEnergyRatio
	}

	return params
}

// Validate validates diarizer configuration.
func (d *DiarizerConfig) Validate() error {
	if d.MergeGap < 0 {
		return fmt.Errorf("merge_gap cannot be negative, got %f", d.MergeGap)
	}

	return nil
}

// Validate validates timeline configuration.
func (t *TimelineConfig) Validate() error {
	if t.MinGapDuration <= 0 {
		return fmt.Errorf("min_gap_duration must be positive, got %f", t.MinGapDuration)
	}

	if t.CompressedDisplayDuration <= 0 {
		return fmt.Errorf("compressed_display_duration must be positive, got %f", t.CompressedDisplayDuration)
	}

	if t.CompressedDisplayDuration >= t.MinGapDuration {
		return fmt.Errorf("compressed_display_duration (%f) must be below min_gap_duration (%f)",
			t.CompressedDisplayDuration, t.MinGapDuration)
	}

	return nil
}

// Validate validates cache configuration.
func (c *CacheConfig) Validate() error {
	if c.MaxAgeSeconds < 0 {
		return fmt.Errorf("max_age_seconds cannot be negative, got %d", c.MaxAgeSeconds)
	}

	if c.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be at least 1, got %d", c.MaxEntries)
	}

	if c.MaxBytes < 1 {
		return fmt.Errorf("max_bytes must be at least 1, got %d", c.MaxBytes)
	}

	return nil
}

// Validate validates transcription configuration.
func (t *TranscriptionConfig) Validate() error {
	if t.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative, got %d", t.TimeoutSeconds)
	}

	if t.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", t.MaxRetries)
	}

	if t.Endpoint == "" && t.APIKey != "" {
		return fmt.Errorf("api_key set without an endpoint")
	}

	return nil
}

// Enabled reports whether a recognition endpoint is configured.
func (t *TranscriptionConfig) Enabled() bool {
	return t.Endpoint != ""
}

// GetTimeout returns the per-request timeout as a time.Duration.
func (t *TranscriptionConfig) GetTimeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetMaxAge returns the cache entry age limit as a time.Duration.
func (c *CacheConfig) GetMaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}
