package vad

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

// SpeechSegment represents one continuous region of detected speech.
// Boundaries are in seconds from the start of the analyzed buffer.
type SpeechSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration returns the segment length in seconds.
func (s SpeechSegment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Params contains the tunable parameters of the spectral detector.
// Presets for different recording conditions differ only in these values.
type Params struct {
	FFTSize            int     // Analysis window size in samples (power of two)
	SampleRate         int     // Sample rate of the buffers to analyze (Hz)
	MinSpeechDuration  float64 // Segments shorter than this are discarded (seconds)
	MinSilenceDuration float64 // Silence shorter than this keeps a segment open (seconds)
	SpeechFreqMin      float64 // Lower bound of the speech band (Hz)
	SpeechFreqMax      float64 // Upper bound of the speech band (Hz)
	SpeechEnergyRatio  float64 // Floor for the adaptive threshold (0..1)
}

// WidebandParams returns the default profile for good-quality wideband recordings.
func WidebandParams(sampleRate int) Params {
	return Params{
		FFTSize:            1024,
		SampleRate:         sampleRate,
		MinSpeechDuration:  0.25,
		MinSilenceDuration: 0.45,
		SpeechFreqMin:      200,
		SpeechFreqMax:      4000,
		SpeechEnergyRatio:  0.35,
	}
}

// TelephoneParams returns the default profile for degraded narrowband telephone
// audio. The band is narrowed to the telephony passband and the ratio floor is
// raised because line noise spreads energy across the whole spectrum.
func TelephoneParams(sampleRate int) Params {
	return Params{
		FFTSize:            512,
		SampleRate:         sampleRate,
		MinSpeechDuration:  0.35,
		MinSilenceDuration: 0.6,
		SpeechFreqMin:      300,
		SpeechFreqMax:      3400,
		SpeechEnergyRatio:  0.5,
	}
}

// Validate checks parameter consistency.
func (p Params) Validate() error {
	if p.FFTSize <= 0 || p.FFTSize&(p.FFTSize-1) != 0 {
		return fmt.Errorf("fft_size must be a positive power of two, got %d", p.FFTSize)
	}

	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}

	if p.MinSpeechDuration <= 0 {
		return fmt.Errorf("min_speech_duration must be positive, got %f", p.MinSpeechDuration)
	}

	if p.MinSilenceDuration <= 0 {
		return fmt.Errorf("min_silence_duration must be positive, got %f", p.MinSilenceDuration)
	}

	// Segment boundaries stay non-overlapping only while the closing silence
	// run is at least one analysis window long.
	if p.MinSilenceDuration*float64(p.SampleRate) < float64(p.FFTSize) {
		return fmt.Errorf("min_silence_duration %f is shorter than one analysis window (%d samples at %d Hz)",
			p.MinSilenceDuration, p.FFTSize, p.SampleRate)
	}

	if p.SpeechFreqMin < 0 {
		return fmt.Errorf("speech_freq_min cannot be negative, got %f", p.SpeechFreqMin)
	}

	if p.SpeechFreqMin >= p.SpeechFreqMax {
		return fmt.Errorf("speech_freq_min (%f) must be below speech_freq_max (%f)",
			p.SpeechFreqMin, p.SpeechFreqMax)
	}

	if p.SpeechFreqMax > float64(p.SampleRate)/2 {
		return fmt.Errorf("speech_freq_max (%f) exceeds the Nyquist frequency (%d Hz)",
			p.SpeechFreqMax, p.SampleRate/2)
	}

	if p.SpeechEnergyRatio < 0 || p.SpeechEnergyRatio > 1 {
		return fmt.Errorf("speech_energy_ratio must be between 0 and 1, got %f", p.SpeechEnergyRatio)
	}

	return nil
}

// Detector performs spectral voice activity detection. It is stateless between
// calls and safe for concurrent use on independent buffers.
type Detector struct {
	params Params
	fft    *fourier.FFT
	window []float64
	hop    int
}

// NewDetector creates a detector with a precomputed FFT plan and Hann window.
func NewDetector(params Params) (*Detector, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector parameters: %w", err)
	}

	return &Detector{
		params: params,
		fft:    fourier.NewFFT(params.FFTSize),
		window: hann(params.FFTSize),
		hop:    params.FFTSize / 2, // 50% overlap
	}, nil
}

// Params returns the configuration the detector was built with.
func (d *Detector) Params() Params {
	return d.params
}

// DetectSpeechSegments classifies the buffer into speech segments. Empty input
// or input shorter than one analysis window yields an empty result.
func (d *Detector) DetectSpeechSegments(samples []float64) []SpeechSegment {
	ratios := d.frameEnergyRatios(samples)
	if len(ratios) == 0 {
		return nil
	}

	threshold := d.adaptiveThreshold(ratios)

	return d.segmentsFromRatios(ratios, threshold)
}

// ExtractAudio copies the samples covered by the segment out of the buffer.
// Boundaries extending beyond the buffer are clamped; a segment entirely
// outside the buffer yields an empty slice.
func (d *Detector) ExtractAudio(segment SpeechSegment, samples []float64) []float64 {
	start := int(segment.StartTime * float64(d.params.SampleRate))
	end := int(segment.EndTime * float64(d.params.SampleRate))

	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	if start >= end {
		return []float64{}
	}

	out := make([]float64, end-start)
	copy(out, samples[start:end])
	return out
}

// frameEnergyRatios slides the analysis window across the buffer and computes
// the fraction of each frame's spectral energy inside the speech band.
func (d *Detector) frameEnergyRatios(samples []float64) []float64 {
	n := d.params.FFTSize
	if len(samples) < n {
		return nil
	}

	frames := 1 + (len(samples)-n)/d.hop
	ratios := make([]float64, frames)

	binWidth := float64(d.params.SampleRate) / float64(n)
	minBin := int(math.Ceil(d.params.SpeechFreqMin / binWidth))
	maxBin := int(math.Floor(d.params.SpeechFreqMax / binWidth))
	if maxBin > n/2 {
		maxBin = n / 2
	}

	buf := make([]float64, n)
	coeffs := make([]complex128, n/2+1)

	for i := 0; i < frames; i++ {
		start := i * d.hop
		for k := 0; k < n; k++ {
			buf[k] = samples[start+k] * d.window[k]
		}

		coeffs = d.fft.Coefficients(coeffs, buf)

		var total, band float64
		for bin := 1; bin <= n/2; bin++ { // skip DC
			c := coeffs[bin]
			e := real(c)*real(c) + imag(c)*imag(c)
			total += e
			if bin >= minBin && bin <= maxBin {
				band += e
			}
		}

		if total > 0 {
			ratios[i] = band / total
		}
	}

	return ratios
}

// adaptiveThreshold derives the per-call speech/silence threshold from the
// distribution of the frame ratio series. Call loudness varies widely, so a
// fixed global constant is deliberately avoided: the threshold sits between
// the observed noise floor (20th percentile) and the observed speech level
// (80th percentile), with the configured ratio as a lower bound.
func (d *Detector) adaptiveThreshold(ratios []float64) float64 {
	noiseFloor := percentile(ratios, 20)
	speechLevel := percentile(ratios, 80)

	threshold := noiseFloor + 0.35*(speechLevel-noiseFloor)
	if threshold < d.params.SpeechEnergyRatio {
		threshold = d.params.SpeechEnergyRatio
	}

	return threshold
}

// segmentsFromRatios run-length-encodes classified frames into segments with
// hysteresis: a candidate stays open across silence shorter than
// MinSilenceDuration and is discarded when shorter than MinSpeechDuration.
func (d *Detector) segmentsFromRatios(ratios []float64, threshold float64) []SpeechSegment {
	sr := float64(d.params.SampleRate)
	frameDuration := float64(d.params.FFTSize) / sr
	hopDuration := float64(d.hop) / sr

	minSilenceFrames := int(math.Ceil(d.params.MinSilenceDuration / hopDuration))

	segments := make([]SpeechSegment, 0)

	startFrame := -1 // first frame of the open candidate, -1 when closed
	lastSpeech := -1 // last speech frame seen inside the candidate

	flush := func() {
		if startFrame < 0 {
			return
		}
		seg := SpeechSegment{
			StartTime: float64(startFrame) * hopDuration,
			EndTime:   float64(lastSpeech)*hopDuration + frameDuration,
		}
		if seg.Duration() >= d.params.MinSpeechDuration {
			segments = append(segments, seg)
		}
		startFrame = -1
		lastSpeech = -1
	}

	for i, r := range ratios {
		if r >= threshold {
			if startFrame < 0 {
				startFrame = i
			}
			lastSpeech = i
			continue
		}

		if startFrame >= 0 && i-lastSpeech >= minSilenceFrames {
			flush()
		}
	}
	flush()

	return segments
}

// hann returns a Hann window of length n.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// percentile returns the p-th percentile of xs by nearest-rank on a sorted copy.
func percentile(xs []float64, p int) float64 {
	if len(xs) == 0 {
		return 0
	}

	tmp := append([]float64(nil), xs...)
	sort.Float64s(tmp)

	if p <= 0 {
		return tmp[0]
	}
	if p >= 100 {
		return tmp[len(tmp)-1]
	}

	idx := int(math.Round(float64(p) / 100.0 * float64(len(tmp)-1)))
	return tmp[idx]
}
