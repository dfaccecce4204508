package audio

// DecodedAudio holds a fully decoded recording. Mono always carries the
// playable signal; for stereo sources it is the channel mixdown and Left/Right
// carry the per-speaker channels.
type DecodedAudio struct {
	Mono       []float64
	Left       []float64
	Right      []float64
	SampleRate int
	Stereo     bool
}

// Duration returns the recording length in seconds.
func (d *DecodedAudio) Duration() float64 {
	if d.SampleRate <= 0 {
		return 0
	}
	return float64(len(d.Mono)) / float64(d.SampleRate)
}

// SizeBytes returns the memory footprint of the sample buffers.
func (d *DecodedAudio) SizeBytes() int64 {
	return int64(len(d.Mono)+len(d.Left)+len(d.Right)) * 8
}
