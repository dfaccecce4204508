package cache

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jorikfon/TranscribeIt-sub001/internal/audio"
	"github.com/jorikfon/TranscribeIt-sub001/internal/metrics"
)

// Decoder is the external collaborator invoked on a cache miss.
type Decoder interface {
	Decode(source string) (*audio.DecodedAudio, error)
}

// DecodeFunc adapts a plain function to the Decoder interface.
type DecodeFunc func(source string) (*audio.DecodedAudio, error)

// Decode implements Decoder.
func (f DecodeFunc) Decode(source string) (*audio.DecodedAudio, error) {
	return f(source)
}

// Config contains the cache resource bounds.
type Config struct {
	MaxAge     time.Duration // Entries older than this are evicted on access (0 = never expire)
	MaxEntries int           // Maximum number of cached recordings
	MaxBytes   int64         // Maximum aggregate sample memory
}

// Validate checks configuration consistency.
func (c Config) Validate() error {
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age cannot be negative, got %v", c.MaxAge)
	}

	if c.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be at least 1, got %d", c.MaxEntries)
	}

	if c.MaxBytes < 1 {
		return fmt.Errorf("max_bytes must be at least 1, got %d", c.MaxBytes)
	}

	return nil
}

// Statistics represents accumulated cache counters. Hits, misses, and
// evictions accumulate monotonically until ResetStatistics.
type Statistics struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Entries     int    `json:"current_entry_count"`
	MemoryBytes int64  `json:"current_memory_bytes"`
}

type entry struct {
	key      string
	audio    *audio.DecodedAudio
	loadedAt time.Time
	size     int64
}

// SampleCache is a mutex-guarded LRU cache of decoded recordings. All state
// transitions (insert, evict, recency update, statistics) happen under one
// lock; the decode itself runs outside it, so two callers racing on the same
// cold key may both decode. The last insert wins.
type SampleCache struct {
	cfg     Config
	decoder Decoder
	logger  *slog.Logger
	mets    *metrics.Metrics

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	bytes   int64

	hits      uint64
	misses    uint64
	evictions uint64

	now func() time.Time // injectable clock for tests
}

// New creates a sample cache around the given decode collaborator. The logger
// must not be nil; metrics may be.
func New(cfg Config, decoder Decoder, logger *slog.Logger, mets *metrics.Metrics) (*SampleCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	if decoder == nil {
		return nil, fmt.Errorf("decoder cannot be nil")
	}

	return &SampleCache{
		cfg:     cfg,
		decoder: decoder,
		logger:  logger,
		mets:    mets,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}, nil
}

// Get returns the decoded audio for the source, decoding on first access.
// The returned buffers are shared and must be treated as read-only. Decode
// failures propagate to the caller; nothing is cached on failure.
func (c *SampleCache) Get(source string) (*audio.DecodedAudio, error) {
	c.mu.Lock()
	if el, ok := c.entries[source]; ok {
		e := el.Value.(*entry)
		if c.cfg.MaxAge <= 0 || c.now().Sub(e.loadedAt) <= c.cfg.MaxAge {
			c.hits++
			c.order.MoveToFront(el)
			c.mu.Unlock()
			c.mets.RecordCacheHit()
			return e.audio, nil
		}

		// Stale: evict and fall through to the miss path.
		c.removeLocked(el)
		c.evictions++
		c.mets.RecordCacheEviction()
		c.logger.Debug("Cache entry expired",
			slog.String("source", source),
			slog.Duration("age", c.now().Sub(e.loadedAt)),
		)
	}
	c.mu.Unlock()

	decodeStart := time.Now()
	decoded, err := c.decoder.Decode(source)
	if err != nil {
		c.mets.RecordDecodeFailure()
		return nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A racing caller may have inserted meanwhile; replace its entry so the
	// bookkeeping stays consistent with what we return.
	if el, ok := c.entries[source]; ok {
		c.removeLocked(el)
	}

	e := &entry{
		key:      source,
		audio:    decoded,
		loadedAt: c.now(),
		size:     decoded.SizeBytes(),
	}
	c.entries[source] = c.order.PushFront(e)
	c.bytes += e.size
	c.misses++
	c.mets.RecordCacheMiss(time.Since(decodeStart).Seconds())

	evicted := c.evictLocked()
	c.mets.SetCacheUsage(len(c.entries), c.bytes)

	c.logger.Debug("Cached decoded audio",
		slog.String("source", source),
		slog.Int64("size_bytes", e.size),
		slog.Int("evicted", evicted),
		slog.Int("entries", len(c.entries)),
	)

	return decoded, nil
}

// Invalidate removes one entry if present.
func (c *SampleCache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[source]; ok {
		c.removeLocked(el)
		c.mets.SetCacheUsage(len(c.entries), c.bytes)
	}
}

// Clear removes all entries. Statistics are preserved.
func (c *SampleCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.bytes = 0
	c.mets.SetCacheUsage(0, 0)
}

// Statistics returns a snapshot of the accumulated counters and current usage.
func (c *SampleCache) Statistics() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Statistics{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Entries:     len(c.entries),
		MemoryBytes: c.bytes,
	}
}

// ResetStatistics zeroes the accumulated counters without touching entries.
func (c *SampleCache) ResetStatistics() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// evictLocked removes least-recently-used entries until both the entry count
// and the byte budget are within bounds, recording one eviction per removal.
func (c *SampleCache) evictLocked() int {
	evicted := 0
	for len(c.entries) > c.cfg.MaxEntries || c.bytes > c.cfg.MaxBytes {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		e := oldest.Value.(*entry)
		c.removeLocked(oldest)
		c.evictions++
		evicted++
		c.mets.RecordCacheEviction()
		c.logger.Debug("Evicted cache entry",
			slog.String("source", e.key),
			slog.Int64("size_bytes", e.size),
		)
	}
	return evicted
}

func (c *SampleCache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.key)
	c.bytes -= e.size
}
