package usage

import (
	"sync"
	"time"
)

const (
	// ProviderKeyPrefix prefixes the aggregate key kept for each provider
	ProviderKeyPrefix = "provider:"

	WindowMinute = time.Minute
	WindowHour   = time.Hour
)

// ProviderKey returns the aggregate usage key for a provider
func ProviderKey(provider string) string {
	return ProviderKeyPrefix + provider
}

// Sample is a single token-usage observation
type Sample struct {
	Timestamp time.Time
	Tokens    int
}

// Tracker records token consumption per model key and answers sliding-window
// and lifetime queries. All state is guarded by a single mutex.
type Tracker struct {
	mu        sync.Mutex
	samples   map[string][]Sample
	totals    map[string]int
	retention time.Duration
	now       func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithRetention keeps samples for at least twice d regardless of the window
// a query asks for, so short queries never prune data a longer window needs.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) {
		t.retention = d
	}
}

// NewTracker creates an empty Tracker
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		samples: make(map[string][]Sample),
		totals:  make(map[string]int),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record appends a sample stamped with the current time. When provider is
// non-empty the sample is also added to the provider aggregate key.
func (t *Tracker) Record(modelKey string, tokens int, provider string) {
	t.RecordAt(modelKey, tokens, provider, t.now())
}

// RecordAt appends a sample with an explicit timestamp
func (t *Tracker) RecordAt(modelKey string, tokens int, provider string, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.append(modelKey, tokens, ts)
	if provider != "" {
		t.append(ProviderKey(provider), tokens, ts)
	}
}

func (t *Tracker) append(key string, tokens int, ts time.Time) {
	t.samples[key] = append(t.samples[key], Sample{Timestamp: ts, Tokens: tokens})
	t.totals[key] += tokens
}

// UsageInWindow sums the tokens recorded for modelKey within [now-window, now].
// Samples older than twice max(window, retention) are dropped for that key.
func (t *Tracker) UsageInWindow(modelKey string, window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	samples, ok := t.samples[modelKey]
	if !ok {
		return 0
	}

	now := t.now()
	cutoff := now.Add(-window)
	horizon := window
	if t.retention > horizon {
		horizon = t.retention
	}
	cleanupCutoff := now.Add(-2 * horizon)

	total := 0
	kept := samples[:0]
	for _, s := range samples {
		if !s.Timestamp.Before(cutoff) {
			total += s.Tokens
		}
		if !s.Timestamp.Before(cleanupCutoff) {
			kept = append(kept, s)
		}
	}
	// zero the tail so pruned samples can be collected
	for i := len(kept); i < len(samples); i++ {
		samples[i] = Sample{}
	}
	t.samples[modelKey] = kept

	return total
}

// UsageLastHour is shorthand for a one hour window
func (t *Tracker) UsageLastHour(modelKey string) int {
	return t.UsageInWindow(modelKey, WindowHour)
}

// UsageLastMinute is shorthand for a one minute window
func (t *Tracker) UsageLastMinute(modelKey string) int {
	return t.UsageInWindow(modelKey, WindowMinute)
}

// TotalUsage returns the lifetime token total for modelKey
func (t *Tracker) TotalUsage(modelKey string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.totals[modelKey]
}

// AllUsage returns a snapshot of lifetime totals for every tracked key
func (t *Tracker) AllUsage() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(map[string]int, len(t.totals))
	for k, v := range t.totals {
		snapshot[k] = v
	}
	return snapshot
}

// SampleCount reports how many samples are currently stored for modelKey
func (t *Tracker) SampleCount(modelKey string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.samples[modelKey])
}

// Reset clears samples and totals for a single key
func (t *Tracker) Reset(modelKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.samples, modelKey)
	delete(t.totals, modelKey)
}

// ResetAll clears every key
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = make(map[string][]Sample)
	t.totals = make(map[string]int)
}
