package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/llm-orchestrator/services/providers"
	"github.com/upb/llm-orchestrator/services/ratelimit"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
)

// Config holds OpenAI adapter configuration
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int

	// HTTPClient overrides the default client; deadlines come from the request context
	HTTPClient *http.Client
}

// Adapter implements providers.Generator over the chat completions API
type Adapter struct {
	config     Config
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewAdapter creates a new OpenAI adapter
func NewAdapter(config Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Adapter{
		config:     config,
		httpClient: client,
		limiter:    ratelimit.NewLimiter(providerName, config.RequestsPerMinute),
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// Generate sends req as a single user message
func (a *Adapter) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	start := time.Now()
	params := req.WithDefaults()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, providers.ClassifyTransport(ctx, a.Name(), err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       params.Model,
		Messages:    []chatMessage{{Role: "user", Content: params.Prompt}},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.ClassifyTransport(ctx, a.Name(), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.ClassifyTransport(ctx, a.Name(), err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, providers.ClassifyStatus(a.Name(), httpResp.StatusCode, errorMessage(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, providers.NewProviderError(a.Name(), "failed to unmarshal response", httpResp.StatusCode, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, providers.NewProviderError(a.Name(), "response contained no choices", httpResp.StatusCode, nil)
	}

	latency := time.Since(start)
	choice := parsed.Choices[0]
	return &providers.GenerationResponse{
		Text:             choice.Message.Content,
		Tokens:           parsed.Usage.TotalTokens,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		Model:            req.Model,
		Provider:         a.Name(),
		Latency:          latency,
		Metadata: map[string]interface{}{
			"latency_seconds": providers.RoundSeconds(latency),
			"finish_reason":   choice.FinishReason,
		},
	}, nil
}

func errorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// OpenAI-specific request/response types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
