package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	const sampleRate = 16000
	samples := make([]float64, sampleRate) // 1s
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate)
	}

	if err := WriteFile(path, samples, sampleRate); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	decoded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if decoded.Stereo {
		t.Error("Expected mono recording")
	}
	if decoded.SampleRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decoded.SampleRate)
	}
	if len(decoded.Mono) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded.Mono))
	}

	// 16-bit quantization tolerance.
	const tolerance = 2.0 / 32768.0
	for i := 0; i < len(samples); i += 1000 {
		if math.Abs(decoded.Mono[i]-samples[i]) > tolerance {
			t.Fatalf("Sample %d: expected %f, got %f", i, samples[i], decoded.Mono[i])
		}
	}
}

func TestReadStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")

	const sampleRate = 8000
	const frames = 800

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// Left channel at full positive amplitude, right channel silent.
	intData := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		intData[2*i] = 16384
		intData[2*i+1] = 0
	}

	encoder := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	err = encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           intData,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatalf("Failed to write stereo test data: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("Failed to close encoder: %v", err)
	}
	f.Close()

	decoded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if !decoded.Stereo {
		t.Fatal("Expected stereo recording")
	}
	if len(decoded.Left) != frames || len(decoded.Right) != frames || len(decoded.Mono) != frames {
		t.Fatalf("Unexpected buffer lengths: left=%d right=%d mono=%d",
			len(decoded.Left), len(decoded.Right), len(decoded.Mono))
	}

	const tolerance = 2.0 / 32768.0
	if math.Abs(decoded.Left[10]-0.5) > tolerance {
		t.Errorf("Expected left sample 0.5, got %f", decoded.Left[10])
	}
	if math.Abs(decoded.Right[10]) > tolerance {
		t.Errorf("Expected silent right channel, got %f", decoded.Right[10])
	}
	// Mixdown is the average of both channels.
	if math.Abs(decoded.Mono[10]-0.25) > tolerance {
		t.Errorf("Expected mixdown 0.25, got %f", decoded.Mono[10])
	}
}

func TestReadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("this is not a wav file"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := ReadFile(path); err == nil {
		t.Error("Expected error for invalid WAV data")
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestWriteFileValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := WriteFile(path, nil, 16000); err == nil {
		t.Error("Expected error for empty sample buffer")
	}

	if err := WriteFile(path, []float64{0.1}, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestDecodedAudioSizeAndDuration(t *testing.T) {
	d := &DecodedAudio{
		Mono:       make([]float64, 16000),
		Left:       make([]float64, 16000),
		Right:      make([]float64, 16000),
		SampleRate: 16000,
		Stereo:     true,
	}

	if got := d.Duration(); got != 1.0 {
		t.Errorf("Expected duration 1.0, got %f", got)
	}
	if got := d.SizeBytes(); got != 3*16000*8 {
		t.Errorf("Expected size %d, got %d", 3*16000*8, got)
	}

	empty := &DecodedAudio{}
	if got := empty.Duration(); got != 0 {
		t.Errorf("Expected zero duration, got %f", got)
	}
}
