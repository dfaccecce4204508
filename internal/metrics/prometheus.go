package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription core.
// A nil *Metrics is valid and records nothing, so the algorithmic packages
// can stay free of observability wiring.
type Metrics struct {
	// VAD metrics
	VADRuns           *prometheus.CounterVec
	SegmentsDetected  *prometheus.CounterVec
	SegmentDuration   prometheus.Histogram
	VADProcessingTime prometheus.Histogram

	// Diarization metrics
	TurnsProduced  prometheus.Counter
	TurnsCoalesced prometheus.Counter
	TurnDuration   prometheus.Histogram

	// Timeline metrics
	SilenceGapsDetected prometheus.Counter
	CompressionSavings  prometheus.Histogram

	// Cache metrics
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheEvictions   prometheus.Counter
	CacheEntries     prometheus.Gauge
	CacheMemoryBytes prometheus.Gauge
	DecodeDuration   prometheus.Histogram
	DecodeFailures   prometheus.Counter

	// Pipeline metrics
	PipelineRuns     prometheus.Counter
	PipelineDuration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		VADRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcribe_vad_runs_total",
			Help: "Total number of per-channel VAD passes",
		}, []string{"channel"}),
		SegmentsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcribe_vad_segments_detected_total",
			Help: "Total number of speech segments detected",
		}, []string{"channel"}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_vad_segment_duration_seconds",
			Help:    "Duration of detected speech segments",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s to ~1 minute
		}),
		VADProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_vad_processing_duration_seconds",
			Help:    "Wall time of per-channel VAD passes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),

		TurnsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_turns_produced_total",
			Help: "Total number of speaker turns emitted by the merger",
		}),
		TurnsCoalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_turns_coalesced_total",
			Help: "Total number of same-speaker segments coalesced into a previous turn",
		}),
		TurnDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_turn_duration_seconds",
			Help:    "Duration of emitted speaker turns",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s to ~2 minutes
		}),

		SilenceGapsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_silence_gaps_detected_total",
			Help: "Total number of mutual-silence gaps qualifying for compression",
		}),
		CompressionSavings: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_timeline_savings_seconds",
			Help:    "Visual time removed per recording by gap compression",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_cache_hits_total",
			Help: "Total number of sample cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_cache_misses_total",
			Help: "Total number of sample cache misses",
		}),
		CacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_cache_evictions_total",
			Help: "Total number of sample cache evictions",
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "transcribe_cache_entries",
			Help: "Current number of cached recordings",
		}),
		CacheMemoryBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "transcribe_cache_memory_bytes",
			Help: "Current memory held by cached sample buffers",
		}),
		DecodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_decode_duration_seconds",
			Help:    "Duration of decode collaborator invocations",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		DecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_decode_failures_total",
			Help: "Total number of failed decode collaborator invocations",
		}),

		PipelineRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcribe_pipeline_runs_total",
			Help: "Total number of full pipeline executions",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcribe_pipeline_duration_seconds",
			Help:    "Wall time of full pipeline executions",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
	}
}

// RecordVADRun records one per-channel VAD pass.
func (m *Metrics) RecordVADRun(channel string, segments int, processingSeconds float64) {
	if m == nil {
		return
	}
	m.VADRuns.WithLabelValues(channel).Inc()
	m.SegmentsDetected.WithLabelValues(channel).Add(float64(segments))
	m.VADProcessingTime.Observe(processingSeconds)
}

// RecordSegment records one detected speech segment.
func (m *Metrics) RecordSegment(durationSeconds float64) {
	if m == nil {
		return
	}
	m.SegmentDuration.Observe(durationSeconds)
}

// RecordTurn records one emitted speaker turn.
func (m *Metrics) RecordTurn(durationSeconds float64) {
	if m == nil {
		return
	}
	m.TurnsProduced.Inc()
	m.TurnDuration.Observe(durationSeconds)
}

// RecordCoalesced records how many same-speaker segments one merge pass folded away.
func (m *Metrics) RecordCoalesced(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.TurnsCoalesced.Add(float64(count))
}

// RecordTimeline records the gap count and total savings of one mapper build.
func (m *Metrics) RecordTimeline(gaps int, savingsSeconds float64) {
	if m == nil {
		return
	}
	m.SilenceGapsDetected.Add(float64(gaps))
	if savingsSeconds > 0 {
		m.CompressionSavings.Observe(savingsSeconds)
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordCacheMiss records a cache miss and the decode it triggered.
func (m *Metrics) RecordCacheMiss(decodeSeconds float64) {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
	m.DecodeDuration.Observe(decodeSeconds)
}

// RecordCacheEviction records one evicted entry.
func (m *Metrics) RecordCacheEviction() {
	if m == nil {
		return
	}
	m.CacheEvictions.Inc()
}

// RecordDecodeFailure records one failed decode invocation.
func (m *Metrics) RecordDecodeFailure() {
	if m == nil {
		return
	}
	m.DecodeFailures.Inc()
}

// SetCacheUsage updates the cache occupancy gauges.
func (m *Metrics) SetCacheUsage(entries int, memoryBytes int64) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(entries))
	m.CacheMemoryBytes.Set(float64(memoryBytes))
}

// RecordPipelineRun records one full pipeline execution.
func (m *Metrics) RecordPipelineRun(durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRuns.Inc()
	m.PipelineDuration.Observe(durationSeconds)
}
