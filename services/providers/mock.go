package providers

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	MockSuccessName   = "mock_success"
	MockFailureName   = "mock_failure"
	MockRateLimitName = "mock_ratelimit"

	// DefaultMockRateLimitAfter is how many calls mock_ratelimit serves before refusing
	DefaultMockRateLimitAfter = 3
)

type mockOptions struct {
	delay time.Duration
}

// MockOption configures the mock generators
type MockOption func(*mockOptions)

// WithMockDelay makes each mock call take d, or until ctx ends
func WithMockDelay(d time.Duration) MockOption {
	return func(o *mockOptions) {
		o.delay = d
	}
}

func buildMockOptions(opts []MockOption) mockOptions {
	var o mockOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o mockOptions) wait(ctx context.Context, provider string) error {
	if o.delay <= 0 {
		if err := ctx.Err(); err != nil {
			return NewTimeoutError(provider, provider+" request timed out", err)
		}
		return nil
	}

	timer := time.NewTimer(o.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return NewTimeoutError(provider, provider+" request timed out", ctx.Err())
	}
}

// MockSuccess always answers with a canned response
type MockSuccess struct {
	opts mockOptions

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockSuccess creates the mock_success generator
func NewMockSuccess(opts ...MockOption) *MockSuccess {
	return &MockSuccess{
		opts: buildMockOptions(opts),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name returns the provider name
func (m *MockSuccess) Name() string { return MockSuccessName }

// Generate returns a response of 80 to 150 tokens
func (m *MockSuccess) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	start := time.Now()
	if err := m.opts.wait(ctx, m.Name()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	tokens := 80 + m.rng.Intn(71)
	m.mu.Unlock()

	promptTokens := len(strings.Fields(req.Prompt)) * 2
	if promptTokens > tokens {
		promptTokens = tokens
	}

	latency := time.Since(start)
	return &GenerationResponse{
		Text:             fmt.Sprintf("[MOCK SUCCESS] Response to: %s...", truncate(req.Prompt, 50)),
		Tokens:           tokens,
		PromptTokens:     promptTokens,
		CompletionTokens: tokens - promptTokens,
		Model:            req.Model,
		Provider:         m.Name(),
		Latency:          latency,
		Metadata: map[string]interface{}{
			"latency_seconds": RoundSeconds(latency),
			"finish_reason":   "stop",
		},
	}, nil
}

// MockFailure always fails with a provider error
type MockFailure struct {
	opts mockOptions
}

// NewMockFailure creates the mock_failure generator
func NewMockFailure(opts ...MockOption) *MockFailure {
	return &MockFailure{opts: buildMockOptions(opts)}
}

// Name returns the provider name
func (m *MockFailure) Name() string { return MockFailureName }

// Generate always returns a provider_error
func (m *MockFailure) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	if err := m.opts.wait(ctx, m.Name()); err != nil {
		return nil, err
	}
	return nil, NewProviderError(m.Name(), "Simulated provider failure", 0, nil)
}

// MockRateLimit succeeds for the first N calls, then reports rate limiting
type MockRateLimit struct {
	opts  mockOptions
	after int

	mu    sync.Mutex
	calls int
}

// NewMockRateLimit creates the mock_ratelimit generator
func NewMockRateLimit(after int, opts ...MockOption) *MockRateLimit {
	return &MockRateLimit{opts: buildMockOptions(opts), after: after}
}

// Name returns the provider name
func (m *MockRateLimit) Name() string { return MockRateLimitName }

// Calls returns how many times Generate has been invoked
func (m *MockRateLimit) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate succeeds with 100 tokens until the call budget is spent
func (m *MockRateLimit) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if call > m.after {
		return nil, NewRateLimitError(m.Name(), "Simulated rate limit exceeded", 429, nil)
	}

	start := time.Now()
	if err := m.opts.wait(ctx, m.Name()); err != nil {
		return nil, err
	}
	latency := time.Since(start)

	return &GenerationResponse{
		Text:             fmt.Sprintf("[MOCK RATELIMIT] Call %d: %s...", call, truncate(req.Prompt, 30)),
		Tokens:           100,
		PromptTokens:     50,
		CompletionTokens: 50,
		Model:            req.Model,
		Provider:         m.Name(),
		Latency:          latency,
		Metadata: map[string]interface{}{
			"latency_seconds": RoundSeconds(latency),
		},
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// RoundSeconds converts d to seconds rounded to two decimals
func RoundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond)) / float64(time.Second)
}
