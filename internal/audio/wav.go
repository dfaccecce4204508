package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadFile decodes a PCM WAV file into normalized float samples in [-1, 1].
// Mono files populate only Mono; stereo files additionally populate Left and
// Right and Mono becomes the channel mixdown.
func ReadFile(path string) (*DecodedAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data from %s: %w", path, err)
	}

	if len(buf.Data) == 0 {
		return nil, fmt.Errorf("no audio data in %s", path)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	switch buf.Format.NumChannels {
	case 1:
		mono := make([]float64, len(buf.Data))
		for i, s := range buf.Data {
			mono[i] = float64(s) / scale
		}
		return &DecodedAudio{
			Mono:       mono,
			SampleRate: buf.Format.SampleRate,
		}, nil

	case 2:
		frames := len(buf.Data) / 2
		left := make([]float64, frames)
		right := make([]float64, frames)
		mono := make([]float64, frames)
		for i := 0; i < frames; i++ {
			left[i] = float64(buf.Data[2*i]) / scale
			right[i] = float64(buf.Data[2*i+1]) / scale
			mono[i] = (left[i] + right[i]) / 2
		}
		return &DecodedAudio{
			Mono:       mono,
			Left:       left,
			Right:      right,
			SampleRate: buf.Format.SampleRate,
			Stereo:     true,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported channel count %d in %s (mono or stereo only)",
			buf.Format.NumChannels, path)
	}
}

// WriteFile encodes normalized float samples as a 16-bit mono PCM WAV file.
// Used to export individual turns for spot-checking.
func WriteFile(path string, samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return fmt.Errorf("cannot encode empty sample buffer")
	}

	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	intData := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		intData[i] = int(s * 32767.0)
	}

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	err = encoder.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           intData,
		SourceBitDepth: 16,
	})
	if err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}

	return nil
}
