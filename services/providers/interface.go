package providers

import (
	"context"
	"time"
)

// Generator is a backend capable of turning a prompt into text.
// Implementations must tag failures with *GenerationError so callers can
// classify them without inspecting messages.
type Generator interface {
	// Name returns the provider name (e.g., "openai", "anthropic", "mock_success")
	Name() string

	// Generate produces a completion for req. It must honour ctx cancellation.
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error)
}

// GenerationRequest is a single-turn generation request
type GenerationRequest struct {
	// Prompt is sent as a single user message
	Prompt string `json:"prompt"`

	// Model is the catalog model name (e.g., "gpt-4", "claude-haiku-4")
	Model string `json:"model"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`
}

// GenerationResponse is the normalized result of a generation call
type GenerationResponse struct {
	Text             string                 `json:"text"`
	Tokens           int                    `json:"tokens"`
	PromptTokens     int                    `json:"prompt_tokens"`
	CompletionTokens int                    `json:"completion_tokens"`
	Model            string                 `json:"model"`
	Provider         string                 `json:"provider"`
	Latency          time.Duration          `json:"-"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// WithDefaults returns a copy of req with unset limits filled in
func (r GenerationRequest) WithDefaults() GenerationRequest {
	if r.MaxTokens <= 0 {
		r.MaxTokens = defaultMaxTokens
	}
	if r.Temperature < 0 {
		r.Temperature = defaultTemperature
	}
	return r
}
