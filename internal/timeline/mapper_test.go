package timeline

import (
	"math"
	"testing"

	"github.com/jorikfon/TranscribeIt-sub001/internal/segment"
)

func testConfig() Config {
	return Config{
		MinGapDuration:            2.0,
		CompressedDisplayDuration: 0.15,
	}
}

func newTestMapper(t *testing.T, turns []segment.Turn, cfg Config) *Mapper {
	t.Helper()

	mapper, err := NewMapper(turns, cfg)
	if err != nil {
		t.Fatalf("Failed to create mapper: %v", err)
	}
	return mapper
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{"valid", Config{MinGapDuration: 2.0, CompressedDisplayDuration: 0.15}, false},
		{"zero min gap", Config{MinGapDuration: 0, CompressedDisplayDuration: 0.15}, true},
		{"zero display duration", Config{MinGapDuration: 2.0, CompressedDisplayDuration: 0}, true},
		{"display duration above min gap", Config{MinGapDuration: 0.1, CompressedDisplayDuration: 0.15}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestMapperWithoutGaps(t *testing.T) {
	turns := []segment.Turn{
		{Speaker: segment.SpeakerA, StartTime: 0.0, EndTime: 2.0},
		{Speaker: segment.SpeakerB, StartTime: 2.5, EndTime: 4.0}, // 0.5s gap below minimum
	}
	mapper := newTestMapper(t, turns, testConfig())

	if gaps := mapper.Gaps(); len(gaps) != 0 {
		t.Fatalf("Expected no qualifying gaps, got %d", len(gaps))
	}

	for _, tt := range []float64{0, 1.0, 2.25, 3.9, 10.0} {
		if got := mapper.VisualPosition(tt); got != tt {
			t.Errorf("VisualPosition(%f): expected identity, got %f", tt, got)
		}
	}

	if got := mapper.TotalVisualDuration(4.0); got != 4.0 {
		t.Errorf("TotalVisualDuration(4.0): expected 4.0, got %f", got)
	}
}

func TestMapperSingleGap(t *testing.T) {
	// One mutual-silence gap [2.0, 5.0], duration 3.0, compressed to 0.15.
	turns := []segment.Turn{
		{Speaker: segment.SpeakerA, StartTime: 0.0, EndTime: 2.0},
		{Speaker: segment.SpeakerB, StartTime: 5.0, EndTime: 8.0},
	}
	mapper := newTestMapper(t, turns, testConfig())

	gaps := mapper.Gaps()
	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	if gaps[0].RealStartTime != 2.0 || gaps[0].RealEndTime != 5.0 || gaps[0].Duration != 3.0 {
		t.Errorf("Unexpected gap: %+v", gaps[0])
	}

	const epsilon = 1e-9
	tests := []struct {
		realTime float64
		expected float64
	}{
		{0.0, 0.0},
		{2.0, 2.0},                  // gap start unchanged
		{3.5, 3.5 - 0.5*(3.0-0.15)}, // midpoint applies half of the savings
		{5.0, 5.0 - (3.0 - 0.15)},   // gap end: full savings
		{7.0, 7.0 - (3.0 - 0.15)},   // past the gap
	}

	for _, tt := range tests {
		if got := mapper.VisualPosition(tt.realTime); math.Abs(got-tt.expected) > epsilon {
			t.Errorf("VisualPosition(%f): expected %f, got %f", tt.realTime, tt.expected, got)
		}
	}

	if got := mapper.TotalVisualDuration(8.0); math.Abs(got-(8.0-(3.0-0.15))) > epsilon {
		t.Errorf("TotalVisualDuration(8.0): expected %f, got %f", 8.0-(3.0-0.15), got)
	}
}

func TestMapperClampsNegativeInput(t *testing.T) {
	turns := []segment.Turn{
		{Speaker: segment.SpeakerA, StartTime: 0.0, EndTime: 1.0},
	}
	mapper := newTestMapper(t, turns, testConfig())

	if got := mapper.VisualPosition(-5.0); got != 0 {
		t.Errorf("Expected negative input to clamp to 0, got %f", got)
	}
}

func TestMapperMonotonic(t *testing.T) {
	turns := []segment.Turn{
		{Speaker: segment.SpeakerA, StartTime: 0.0, EndTime: 1.0},
		{Speaker: segment.SpeakerB, StartTime: 6.0, EndTime: 7.0},
		{Speaker: segment.SpeakerA, StartTime: 12.0, EndTime: 13.0},
	}
	mapper := newTestMapper(t, turns, testConfig())

	if len(mapper.Gaps()) != 2 {
		t.Fatalf("Expected 2 gaps, got %d", len(mapper.Gaps()))
	}

	prev := math.Inf(-1)
	for tt := -1.0; tt <= 14.0; tt += 0.05 {
		got := mapper.VisualPosition(tt)
		if got < prev {
			t.Fatalf("Mapping not monotonic at t=%f: %f < %f", tt, got, prev)
		}
		if got > tt && tt >= 0 {
			t.Fatalf("Visual position %f exceeds real time %f", got, tt)
		}
		prev = got
	}
}

func TestMapperMergesOverlappingTurnsIntoHull(t *testing.T) {
	// Overlapping and touching turns form one hull interval; only the real
	// mutual silence between 4.0 and 9.0 qualifies.
	turns := []segment.Turn{
		{Speaker: segment.SpeakerA, StartTime: 0.0, EndTime: 2.0},
		{Speaker: segment.SpeakerB, StartTime: 1.5, EndTime: 3.0},
		{Speaker: segment.SpeakerA, StartTime: 3.0, EndTime: 4.0},
		{Speaker: segment.SpeakerB, StartTime: 9.0, EndTime: 10.0},
	}
	mapper := newTestMapper(t, turns, testConfig())

	gaps := mapper.Gaps()
	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d: %+v", len(gaps), gaps)
	}
	if gaps[0].RealStartTime != 4.0 || gaps[0].RealEndTime != 9.0 {
		t.Errorf("Unexpected gap boundaries: %+v", gaps[0])
	}
}

func TestMapperEmptyTurns(t *testing.T) {
	mapper := newTestMapper(t, nil, testConfig())

	if gaps := mapper.Gaps(); len(gaps) != 0 {
		t.Errorf("Expected no gaps for empty turn list, got %d", len(gaps))
	}
	if got := mapper.VisualPosition(5.0); got != 5.0 {
		t.Errorf("Expected identity mapping for empty turn list, got %f", got)
	}
}
