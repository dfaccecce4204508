package cache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jorikfon/TranscribeIt-sub001/internal/audio"
)

// countingDecoder is a test double tracking decode invocations per source.
type countingDecoder struct {
	mu      sync.Mutex
	calls   map[string]int
	samples int
	fail    bool
}

func newCountingDecoder(samplesPerFile int) *countingDecoder {
	return &countingDecoder{calls: make(map[string]int), samples: samplesPerFile}
}

func (d *countingDecoder) Decode(source string) (*audio.DecodedAudio, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls[source]++
	if d.fail {
		return nil, errors.New("no audio track")
	}

	return &audio.DecodedAudio{
		Mono:       make([]float64, d.samples),
		SampleRate: 16000,
	}, nil
}

func (d *countingDecoder) callCount(source string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[source]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T, cfg Config, decoder Decoder) *SampleCache {
	t.Helper()

	c, err := New(cfg, decoder, testLogger(), nil)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	return c
}

func defaultTestConfig() Config {
	return Config{
		MaxAge:     time.Minute,
		MaxEntries: 3,
		MaxBytes:   1 << 30,
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{"valid", Config{MaxAge: time.Minute, MaxEntries: 10, MaxBytes: 1024}, false},
		{"zero max age never expires", Config{MaxAge: 0, MaxEntries: 10, MaxBytes: 1024}, false},
		{"negative max age", Config{MaxAge: -time.Second, MaxEntries: 10, MaxBytes: 1024}, true},
		{"zero max entries", Config{MaxAge: time.Minute, MaxEntries: 0, MaxBytes: 1024}, true},
		{"zero max bytes", Config{MaxAge: time.Minute, MaxEntries: 10, MaxBytes: 0}, true},
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

func TestNewValidation(t *testing.T) {
	if _, err := New(defaultTestConfig(), nil, testLogger(), nil); err == nil {
		t.Error("Expected error for nil decoder")
	}
}

func TestGetMissThenHit(t *testing.T) {
	decoder := newCountingDecoder(1000)
	c := newTestCache(t, defaultTestConfig(), decoder)

	first, err := c.Get("call.wav")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	second, err := c.Get("call.wav")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if first != second {
		t.Error("Expected the same cached instance on the second access")
	}

	if got := decoder.callCount("call.wav"); got != 1 {
		t.Errorf("Expected exactly 1 decode invocation, got %d", got)
	}

	stats := c.Statistics()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	if stats.Entries != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.Entries)
	}
	if stats.MemoryBytes != 1000*8 {
		t.Errorf("Expected %d bytes, got %d", 1000*8, stats.MemoryBytes)
	}
}

func TestLRUEvictionOnEntryCount(t *testing.T) {
	decoder := newCountingDecoder(10)
	cfg := defaultTestConfig()
	cfg.MaxEntries = 3
	c := newTestCache(t, cfg, decoder)

	for i := 0; i < 3; i++ {
		if _, err := c.Get(fmt.Sprintf("call%d.wav", i)); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}

	// Refresh call0 so call1 becomes the least recently used.
	if _, err := c.Get("call0.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Fourth distinct key triggers exactly one eviction.
	if _, err := c.Get("call3.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	stats := c.Statistics()
	if stats.Evictions != 1 {
		t.Errorf("Expected exactly 1 eviction, got %d", stats.Evictions)
	}
	if stats.Entries != 3 {
		t.Errorf("Expected entry count to stay at 3, got %d", stats.Entries)
	}

	// call1 must have been the victim: accessing it decodes again.
	if _, err := c.Get("call1.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := decoder.callCount("call1.wav"); got != 2 {
		t.Errorf("Expected evicted key to decode again (2 calls), got %d", got)
	}
	if got := decoder.callCount("call0.wav"); got != 1 {
		t.Errorf("Expected refreshed key to stay cached (1 call), got %d", got)
	}
}

func TestEvictionOnByteBudget(t *testing.T) {
	decoder := newCountingDecoder(1000) // 8000 bytes per entry
	cfg := defaultTestConfig()
	cfg.MaxEntries = 100
	cfg.MaxBytes = 20000 // fits two entries
	c := newTestCache(t, cfg, decoder)

	for i := 0; i < 3; i++ {
		if _, err := c.Get(fmt.Sprintf("call%d.wav", i)); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}

	stats := c.Statistics()
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
	if stats.MemoryBytes > cfg.MaxBytes {
		t.Errorf("Memory usage %d exceeds budget %d", stats.MemoryBytes, cfg.MaxBytes)
	}
	if stats.Entries != 2 {
		t.Errorf("Expected 2 entries, got %d", stats.Entries)
	}
}

func TestAgeExpiry(t *testing.T) {
	decoder := newCountingDecoder(10)
	cfg := defaultTestConfig()
	cfg.MaxAge = time.Minute
	c := newTestCache(t, cfg, decoder)

	current := time.Unix(1700000000, 0)
	c.now = func() time.Time { return current }

	if _, err := c.Get("call.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Within the age window: hit, no second decode.
	current = current.Add(30 * time.Second)
	if _, err := c.Get("call.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := decoder.callCount("call.wav"); got != 1 {
		t.Errorf("Expected 1 decode within the age window, got %d", got)
	}

	// Past the age window: the stale entry is evicted and decoded anew.
	current = current.Add(2 * time.Minute)
	if _, err := c.Get("call.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := decoder.callCount("call.wav"); got != 2 {
		t.Errorf("Expected a second decode after expiry, got %d", got)
	}

	stats := c.Statistics()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Expected 2 misses, got %d", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 expiry eviction, got %d", stats.Evictions)
	}
}

func TestDecodeFailurePropagates(t *testing.T) {
	decoder := newCountingDecoder(10)
	decoder.fail = true
	c := newTestCache(t, defaultTestConfig(), decoder)

	if _, err := c.Get("broken.wav"); err == nil {
		t.Fatal("Expected decode failure to propagate")
	}

	if stats := c.Statistics(); stats.Entries != 0 {
		t.Errorf("Expected nothing cached after failure, got %d entries", stats.Entries)
	}

	// The failure is not cached either: the next access decodes again.
	decoder.fail = false
	if _, err := c.Get("broken.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := decoder.callCount("broken.wav"); got != 2 {
		t.Errorf("Expected 2 decode attempts, got %d", got)
	}
}

func TestInvalidateAndClear(t *testing.T) {
	decoder := newCountingDecoder(10)
	c := newTestCache(t, defaultTestConfig(), decoder)

	if _, err := c.Get("a.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := c.Get("b.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	c.Invalidate("a.wav")
	if stats := c.Statistics(); stats.Entries != 1 {
		t.Errorf("Expected 1 entry after invalidate, got %d", stats.Entries)
	}

	// Invalidating an absent key is a no-op.
	c.Invalidate("missing.wav")

	c.Clear()
	stats := c.Statistics()
	if stats.Entries != 0 || stats.MemoryBytes != 0 {
		t.Errorf("Expected empty cache after clear, got %d entries / %d bytes", stats.Entries, stats.MemoryBytes)
	}
	if stats.Misses != 2 {
		t.Errorf("Expected statistics to survive clear, got %d misses", stats.Misses)
	}
}

func TestResetStatistics(t *testing.T) {
	decoder := newCountingDecoder(10)
	c := newTestCache(t, defaultTestConfig(), decoder)

	if _, err := c.Get("a.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := c.Get("a.wav"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	c.ResetStatistics()

	stats := c.Statistics()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Evictions != 0 {
		t.Errorf("Expected zeroed counters, got %+v", stats)
	}
	if stats.Entries != 1 {
		t.Errorf("Expected entries to survive reset, got %d", stats.Entries)
	}
}

func TestConcurrentAccess(t *testing.T) {
	decoder := newCountingDecoder(100)
	cfg := defaultTestConfig()
	cfg.MaxEntries = 4
	c := newTestCache(t, cfg, decoder)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				source := fmt.Sprintf("call%d.wav", (worker+i)%6)
				if _, err := c.Get(source); err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
			}
		}(worker)
	}
	wg.Wait()

	stats := c.Statistics()
	if stats.Entries > cfg.MaxEntries {
		t.Errorf("Entry count %d exceeds maximum %d", stats.Entries, cfg.MaxEntries)
	}
	if stats.Hits+stats.Misses != 400 {
		t.Errorf("Expected 400 accesses accounted, got %d", stats.Hits+stats.Misses)
	}
}
