package timeline

import (
	"fmt"
	"sort"

	"github.com/jorikfon/TranscribeIt-sub001/internal/segment"
)

// SilenceGap is an interval in which neither speaker is active.
type SilenceGap struct {
	RealStartTime float64 `json:"real_start_time"`
	RealEndTime   float64 `json:"real_end_time"`
	Duration      float64 `json:"duration"`
}

// Config contains the compression tunables.
type Config struct {
	MinGapDuration            float64 // Gaps at or below this stay uncompressed (seconds)
	CompressedDisplayDuration float64 // Visual length every qualifying gap shrinks to (seconds)
}

// Validate checks configuration consistency.
func (c Config) Validate() error {
	if c.MinGapDuration <= 0 {
		return fmt.Errorf("min_gap_duration must be positive, got %f", c.MinGapDuration)
	}

	if c.CompressedDisplayDuration <= 0 {
		return fmt.Errorf("compressed_display_duration must be positive, got %f", c.CompressedDisplayDuration)
	}

	// Every qualifying gap is longer than MinGapDuration, so this guarantees
	// the compressed form is always shorter than the original.
	if c.CompressedDisplayDuration >= c.MinGapDuration {
		return fmt.Errorf("compressed_display_duration (%f) must be below min_gap_duration (%f)",
			c.CompressedDisplayDuration, c.MinGapDuration)
	}

	return nil
}

// Mapper maps real timestamps onto a visually compacted time axis. It is
// immutable after construction and safe for concurrent use.
type Mapper struct {
	cfg  Config
	gaps []SilenceGap
}

// NewMapper detects mutual-silence gaps in the turn sequence and prepares the
// compression mapping.
func NewMapper(turns []segment.Turn, cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timeline configuration: %w", err)
	}

	return &Mapper{
		cfg:  cfg,
		gaps: detectGaps(turns, cfg.MinGapDuration),
	}, nil
}

// Gaps returns the detected silence gaps, sorted ascending and non-overlapping.
func (m *Mapper) Gaps() []SilenceGap {
	out := make([]SilenceGap, len(m.gaps))
	copy(out, m.gaps)
	return out
}

// VisualPosition maps a real timestamp to its position on the compressed axis.
// Gaps fully before t contribute their full savings; a position inside a gap
// is compressed proportionally. The result is clamped at 0 and never exceeds t.
func (m *Mapper) VisualPosition(realTime float64) float64 {
	pos := realTime

	for _, gap := range m.gaps {
		if gap.RealStartTime >= realTime {
			break
		}

		savings := gap.Duration - m.cfg.CompressedDisplayDuration
		if realTime >= gap.RealEndTime {
			pos -= savings
		} else {
			fraction := (realTime - gap.RealStartTime) / gap.Duration
			pos -= fraction * savings
		}
	}

	if pos < 0 {
		pos = 0
	}
	return pos
}

// TotalVisualDuration returns the compressed length of a recording of the
// given real duration.
func (m *Mapper) TotalVisualDuration(realDuration float64) float64 {
	visual := realDuration
	for _, gap := range m.gaps {
		visual -= gap.Duration - m.cfg.CompressedDisplayDuration
	}

	if visual < 0 {
		visual = 0
	}
	return visual
}

// detectGaps builds the activity hull of the turn sequence and records every
// inter-hull gap longer than minGap.
func detectGaps(turns []segment.Turn, minGap float64) []SilenceGap {
	if len(turns) == 0 {
		return nil
	}

	type interval struct{ start, end float64 }

	intervals := make([]interval, 0, len(turns))
	for _, t := range turns {
		intervals = append(intervals, interval{t.StartTime, t.EndTime})
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	// Merge overlapping or touching intervals into the activity hull.
	hull := intervals[:1]
	for _, iv := range intervals[1:] {
		last := &hull[len(hull)-1]
		if iv.start <= last.end {
			if iv.end > last.end {
				last.end = iv.end
			}
			continue
		}
		hull = append(hull, iv)
	}

	gaps := make([]SilenceGap, 0)
	for i := 0; i < len(hull)-1; i++ {
		duration := hull[i+1].start - hull[i].end
		if duration > minGap {
			gaps = append(gaps, SilenceGap{
				RealStartTime: hull[i].end,
				RealEndTime:   hull[i+1].start,
				Duration:      duration,
			})
		}
	}

	return gaps
}
