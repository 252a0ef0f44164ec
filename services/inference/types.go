package inference

import (
	"time"

	"github.com/upb/llm-orchestrator/models"
	"github.com/upb/llm-orchestrator/services/routing"
)

const (
	DefaultRateLimitCooldown = 600 * time.Second
	DefaultAccountingWindow  = time.Hour
	DefaultRequestTimeout    = 30 * time.Second

	// fallbackReasonLimit caps the error text quoted in fallback_reason
	fallbackReasonLimit = 100
)

// Config holds orchestration limits
type Config struct {
	// RateLimitCooldown is the forced cooldown after a provider throttles a model.
	// It is independent of the usage-threshold cooldown duration.
	RateLimitCooldown time.Duration

	// AccountingWindow is the window passed to the usage threshold check
	AccountingWindow time.Duration

	// MaxFallbacks bounds the fallback chain (negative uses the router default)
	MaxFallbacks int

	// RequestTimeout bounds each generation attempt
	RequestTimeout time.Duration
}

// DefaultConfig returns the built-in limits
func DefaultConfig() Config {
	return Config{
		RateLimitCooldown: DefaultRateLimitCooldown,
		AccountingWindow:  DefaultAccountingWindow,
		MaxFallbacks:      routing.DefaultMaxFallbacks,
		RequestTimeout:    DefaultRequestTimeout,
	}
}

// GenerateRequest is one prompt to orchestrate
type GenerateRequest struct {
	Prompt      string
	Preference  routing.Preference
	MaxTokens   int
	Temperature float64

	// RequestID correlates logs and the audit trail; generated when empty
	RequestID string
}

// GenerateResult is the response of a successful orchestration
type GenerateResult struct {
	Text           string                 `json:"text"`
	ModelUsed      string                 `json:"model_used"`
	Provider       string                 `json:"provider"`
	TokensUsed     int                    `json:"tokens_used"`
	Intent         string                 `json:"intent"`
	Metadata       map[string]interface{} `json:"metadata"`
	FallbackUsed   bool                   `json:"fallback_used"`
	FallbackReason *string                `json:"fallback_reason"`

	Attempts []Attempt `json:"-"`
}

// Attempt records one generation call of a request
type Attempt struct {
	Provider string
	Model    string
	Outcome  models.AttemptOutcome
	Err      error
	Latency  time.Duration
}

// TriedModels returns the model names of attempts, in order
func TriedModels(attempts []Attempt) []string {
	tried := make([]string, 0, len(attempts))
	for _, a := range attempts {
		tried = append(tried, a.Model)
	}
	return tried
}
