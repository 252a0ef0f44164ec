package anthropic

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
	providerName   = "anthropic"
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

// modelMapping resolves catalog names to dated API model ids
var modelMapping = map[string]string{
	"claude-sonnet-4": "claude-sonnet-4-20250514",
	"claude-haiku-4":  "claude-haiku-4-20250611",
}

// ResolveModel returns the API model id for a catalog model name
func ResolveModel(model string) string {
	if full, ok := modelMapping[model]; ok {
		return full
	}
	return model
}

// Config holds Anthropic adapter configuration
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Adapter implements providers.Generator over the messages API
type Adapter struct {
	config     Config
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewAdapter creates a new Anthropic adapter
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

	body, err := json.Marshal(messagesRequest{
		Model:       ResolveModel(params.Model),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		Messages:    []message{{Role: "user", Content: params.Prompt}},
	})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, providers.NewProviderError(a.Name(), "failed to unmarshal response", httpResp.StatusCode, err)
	}

	// first text block only
	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	latency := time.Since(start)
	return &providers.GenerationResponse{
		Text:             text,
		Tokens:           parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
		Model:            req.Model,
		Provider:         a.Name(),
		Latency:          latency,
		Metadata: map[string]interface{}{
			"latency_seconds": providers.RoundSeconds(latency),
			"stop_reason":     parsed.StopReason,
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

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
