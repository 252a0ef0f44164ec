package cooldown

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultThreshold = 5000
	DefaultDuration  = 300 * time.Second
)

// UsageReader is the read side of the usage tracker consulted by CheckAndTrigger
type UsageReader interface {
	UsageInWindow(modelKey string, window time.Duration) int
}

// Config holds cooldown thresholds
type Config struct {
	// Threshold is the token count within a window that forces a cooldown
	Threshold int

	// Duration is the default cooldown length
	Duration time.Duration
}

// DefaultConfig returns the built-in thresholds
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Duration:  DefaultDuration,
	}
}

type state struct {
	expiry time.Time
}

// Manager keeps per-model "suspended until" state.
//
// A key is on cooldown iff now < expiry. Expired entries are removed on the
// next lookup; there is no background sweeper. The manager's mutex is never
// held while the usage reader is consulted.
type Manager struct {
	mu       sync.Mutex
	states   map[string]state
	triggers map[string]int

	usage  UsageReader
	config Config
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a cooldown manager backed by the given usage reader
func NewManager(usage UsageReader, config Config, logger *zap.Logger, opts ...Option) *Manager {
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if config.Duration <= 0 {
		config.Duration = DefaultDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		states:   make(map[string]state),
		triggers: make(map[string]int),
		usage:    usage,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured usage threshold
func (m *Manager) Threshold() int {
	return m.config.Threshold
}

// IsOnCooldown reports whether modelKey is currently suspended, evicting
// the entry once it has expired.
func (m *Manager) IsOnCooldown(modelKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[modelKey]
	if !ok {
		return false
	}
	if !m.now().Before(st.expiry) {
		delete(m.states, modelKey)
		return false
	}
	return true
}

// Trigger puts modelKey on cooldown for duration, replacing any existing
// expiry. A non-positive duration uses the configured default.
func (m *Manager) Trigger(modelKey string, duration time.Duration) {
	if duration <= 0 {
		duration = m.config.Duration
	}

	m.mu.Lock()
	expiry := m.now().Add(duration)
	m.states[modelKey] = state{expiry: expiry}
	m.triggers[modelKey]++
	count := m.triggers[modelKey]
	m.mu.Unlock()

	m.logger.Info("cooldown triggered",
		zap.String("model", modelKey),
		zap.Duration("duration", duration),
		zap.Time("expires_at", expiry),
		zap.Int("trigger_count", count))
}

// CheckAndTrigger starts a default-length cooldown when the usage recorded
// for modelKey within window has reached the threshold. It reports whether
// a cooldown was triggered.
func (m *Manager) CheckAndTrigger(modelKey string, window time.Duration) bool {
	used := 0
	if m.usage != nil {
		used = m.usage.UsageInWindow(modelKey, window)
	}

	if used < m.config.Threshold {
		return false
	}

	m.logger.Warn("usage threshold reached",
		zap.String("model", modelKey),
		zap.Int("usage", used),
		zap.Int("threshold", m.config.Threshold),
		zap.Duration("window", window))
	m.Trigger(modelKey, m.config.Duration)
	return true
}

// Remaining returns how long modelKey stays on cooldown, zero if it is not
func (m *Manager) Remaining(modelKey string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[modelKey]
	if !ok {
		return 0
	}
	remaining := st.expiry.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingSeconds is Remaining truncated to whole seconds
func (m *Manager) RemainingSeconds(modelKey string) int {
	return int(m.Remaining(modelKey) / time.Second)
}

// Clear removes any cooldown on modelKey
func (m *Manager) Clear(modelKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, modelKey)
}

// ClearAll removes every cooldown. Trigger statistics are kept.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states = make(map[string]state)
}

// All returns the remaining whole seconds for every key with time left
func (m *Manager) All() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	result := make(map[string]int, len(m.states))
	for key, st := range m.states {
		remaining := int(st.expiry.Sub(now) / time.Second)
		if remaining > 0 {
			result[key] = remaining
		}
	}
	return result
}

// Statistics returns how many times each key has been put on cooldown
func (m *Manager) Statistics() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]int, len(m.triggers))
	for key, count := range m.triggers {
		stats[key] = count
	}
	return stats
}
