package segment

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jorikfon/TranscribeIt-sub001/internal/vad"
)

// Speaker identifies one side of a two-party call.
type Speaker int

const (
	SpeakerA Speaker = iota // channel 0
	SpeakerB                // channel 1
)

// String returns a human-readable speaker label.
func (s Speaker) String() string {
	switch s {
	case SpeakerA:
		return "A"
	case SpeakerB:
		return "B"
	default:
		return fmt.Sprintf("Speaker(%d)", int(s))
	}
}

// MarshalJSON renders the speaker label rather than the enum value.
func (s Speaker) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ChannelSegment is a detected speech segment tagged with its channel and
// speaker, owning a copy of the covered audio.
type ChannelSegment struct {
	Segment vad.SpeechSegment
	Channel int
	Speaker Speaker
	Samples []float64
}

// Turn is one continuous utterance by a single speaker after chronological
// merge and gap coalescing. Text is attached later by the transcription
// collaborator.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
	Samples   []float64 `json:"-"`
	Text      string    `json:"text,omitempty"`
}

// Duration returns the turn length in seconds.
func (t Turn) Duration() float64 {
	return t.EndTime - t.StartTime
}

// Merger combines per-channel segment lists into a turn sequence.
type Merger struct {
	mergeGap   float64 // Same-speaker segments closer than this are coalesced (seconds)
	sampleRate int
}

// NewMerger creates a merger with the given coalescing gap threshold.
func NewMerger(mergeGap float64, sampleRate int) (*Merger, error) {
	if mergeGap < 0 {
		return nil, fmt.Errorf("merge gap cannot be negative, got %f", mergeGap)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	return &Merger{mergeGap: mergeGap, sampleRate: sampleRate}, nil
}

// Merge tags both channels' segments with their speaker, orders them
// chronologically, and coalesces adjacent same-speaker segments. Overlapping
// segments from different speakers are both retained: simultaneous speech is a
// legitimate outcome. An empty or single-entry input passes through unchanged.
func (m *Merger) Merge(channel0, channel1 []vad.SpeechSegment, samples0, samples1 []float64) []Turn {
	tagged := make([]ChannelSegment, 0, len(channel0)+len(channel1))
	tagged = append(tagged, m.tagChannel(channel0, samples0, 0, SpeakerA)...)
	tagged = append(tagged, m.tagChannel(channel1, samples1, 1, SpeakerB)...)

	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].Segment.StartTime < tagged[j].Segment.StartTime
	})

	turns := make([]Turn, 0, len(tagged))
	for _, cs := range tagged {
		if len(turns) > 0 {
			last := &turns[len(turns)-1]
			gap := cs.Segment.StartTime - last.EndTime
			if last.Speaker == cs.Speaker && gap < m.mergeGap {
				last.Samples = append(last.Samples, cs.Samples...)
				if cs.Segment.EndTime > last.EndTime {
					last.EndTime = cs.Segment.EndTime
				}
				continue
			}
		}

		turns = append(turns, Turn{
			Speaker:   cs.Speaker,
			StartTime: cs.Segment.StartTime,
			EndTime:   cs.Segment.EndTime,
			Samples:   cs.Samples,
		})
	}

	return turns
}

// tagChannel builds ChannelSegments for one channel, slicing the covered audio
// out of the channel buffer. Boundaries are clamped to the buffer.
func (m *Merger) tagChannel(segments []vad.SpeechSegment, samples []float64, channel int, speaker Speaker) []ChannelSegment {
	out := make([]ChannelSegment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, ChannelSegment{
			Segment: seg,
			Channel: channel,
			Speaker: speaker,
			Samples: m.extract(seg, samples),
		})
	}
	return out
}

func (m *Merger) extract(seg vad.SpeechSegment, samples []float64) []float64 {
	start := int(seg.StartTime * float64(m.sampleRate))
	end := int(seg.EndTime * float64(m.sampleRate))

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
