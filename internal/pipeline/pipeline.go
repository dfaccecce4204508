package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jorikfon/TranscribeIt-sub001/internal/audio"
	"github.com/jorikfon/TranscribeIt-sub001/internal/config"
	"github.com/jorikfon/TranscribeIt-sub001/internal/metrics"
	"github.com/jorikfon/TranscribeIt-sub001/internal/segment"
	"github.com/jorikfon/TranscribeIt-sub001/internal/timeline"
	"github.com/jorikfon/TranscribeIt-sub001/internal/vad"
)

// Transcriber is the external speech-to-text collaborator. It receives one
// turn's audio plus the preceding recognized text as context and returns the
// recognized text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float64, sampleRate int, precedingText string) (string, error)
}

// Result is the outcome of one pipeline run over a decoded recording.
type Result struct {
	RunID          string                `json:"run_id"`
	SampleRate     int                   `json:"sample_rate"`
	SourceDuration float64               `json:"source_duration"`
	VisualDuration float64               `json:"visual_duration"`
	Turns          []segment.Turn        `json:"turns"`
	Gaps           []timeline.SilenceGap `json:"silence_gaps"`
	Mapper         *timeline.Mapper      `json:"-"`
}

// Pipeline turns decoded recordings into chronological speaker turns and a
// compressed display timeline.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	mets   *metrics.Metrics
}

// New creates a pipeline. Metrics may be nil.
func New(cfg *config.Config, logger *slog.Logger, mets *metrics.Metrics) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	return &Pipeline{cfg: cfg, logger: logger, mets: mets}, nil
}

// Process runs VAD, diarization, and timeline construction over a recording.
// For stereo input the two channels are analyzed in parallel; mono input is
// attributed entirely to speaker A. The context is checked between stages;
// the stages themselves are short, bounded computations.
func (p *Pipeline) Process(ctx context.Context, rec *audio.DecodedAudio) (*Result, error) {
	if rec == nil {
		return nil, fmt.Errorf("recording cannot be nil")
	}

	start := time.Now()
	runID := uuid.NewString()

	params := p.cfg.VAD.Params(rec.SampleRate)
	detector, err := vad.NewDetector(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	logger := p.logger.With(slog.String("run_id", runID))
	logger.Info("Pipeline run started",
		slog.String("preset", p.cfg.VAD.Preset),
		slog.Int("sample_rate", rec.SampleRate),
		slog.Bool("stereo", rec.Stereo),
		slog.Float64("duration", rec.Duration()),
	)

	channel0 := rec.Mono
	var channel1 []float64
	if rec.Stereo {
		channel0 = rec.Left
		channel1 = rec.Right
	}

	// The two channels have no data dependency and run concurrently.
	var wg sync.WaitGroup
	var segs0, segs1 []vad.SpeechSegment

	wg.Add(1)
	go func() {
		defer wg.Done()
		vadStart := time.Now()
		segs0 = detector.DetectSpeechSegments(channel0)
		p.mets.RecordVADRun("0", len(segs0), time.Since(vadStart).Seconds())
	}()

	if channel1 != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vadStart := time.Now()
			segs1 = detector.DetectSpeechSegments(channel1)
			p.mets.RecordVADRun("1", len(segs1), time.Since(vadStart).Seconds())
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline cancelled: %w", err)
	}

	for _, seg := range segs0 {
		p.mets.RecordSegment(seg.Duration())
	}
	for _, seg := range segs1 {
		p.mets.RecordSegment(seg.Duration())
	}
	logger.Debug("VAD completed",
		slog.Int("channel0_segments", len(segs0)),
		slog.Int("channel1_segments", len(segs1)),
	)

	merger, err := segment.NewMerger(p.cfg.Diarizer.MergeGap, rec.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create merger: %w", err)
	}

	turns := merger.Merge(segs0, segs1, channel0, channel1)
	for _, turn := range turns {
		p.mets.RecordTurn(turn.Duration())
	}
	p.mets.RecordCoalesced(len(segs0) + len(segs1) - len(turns))

	mapper, err := timeline.NewMapper(turns, timeline.Config{
		MinGapDuration:            p.cfg.Timeline.MinGapDuration,
		CompressedDisplayDuration: p.cfg.Timeline.CompressedDisplayDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}

	realDuration := rec.Duration()
	visualDuration := mapper.TotalVisualDuration(realDuration)
	gaps := mapper.Gaps()
	p.mets.RecordTimeline(len(gaps), realDuration-visualDuration)
	p.mets.RecordPipelineRun(time.Since(start).Seconds())

	logger.Info("Pipeline run completed",
		slog.Int("turns", len(turns)),
		slog.Int("silence_gaps", len(gaps)),
		slog.Float64("visual_duration", visualDuration),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		RunID:          runID,
		SampleRate:     rec.SampleRate,
		SourceDuration: realDuration,
		VisualDuration: visualDuration,
		Turns:          turns,
		Gaps:           gaps,
		Mapper:         mapper,
	}, nil
}

// Transcribe attaches recognized text to every turn sequentially, feeding each
// turn's result as context into the next. The first collaborator error aborts
// the loop; already transcribed turns keep their text.
func (p *Pipeline) Transcribe(ctx context.Context, result *Result, transcriber Transcriber) error {
	if transcriber == nil {
		return fmt.Errorf("transcriber cannot be nil")
	}

	preceding := ""
	for i := range result.Turns {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transcription cancelled: %w", err)
		}

		text, err := transcriber.Transcribe(ctx, result.Turns[i].Samples, result.SampleRate, preceding)
		if err != nil {
			return fmt.Errorf("failed to transcribe turn %d: %w", i, err)
		}

		result.Turns[i].Text = text
		if text != "" {
			preceding = text
		}
	}

	return nil
}
