package handlers

import (
	"context"
	"net/http"

	"github.com/upb/llm-orchestrator/middleware"
	"github.com/upb/llm-orchestrator/services/inference"
	"github.com/upb/llm-orchestrator/services/routing"
	"github.com/upb/llm-orchestrator/utils"
	"go.uber.org/zap"
)

// Request defaults applied when a field is omitted
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

const resetMessage = "System reset successful"

// GenerateRequest is the body of POST /generate
type GenerateRequest struct {
	Prompt      string   `json:"prompt" validate:"required"`
	Preference  string   `json:"preference,omitempty" validate:"omitempty,oneof=cost speed quality balanced"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// InferenceService defines the orchestration operations used by the handler
type InferenceService interface {
	Generate(ctx context.Context, req inference.GenerateRequest) (*inference.GenerateResult, error)
	Stats() inference.SystemStats
	Reset()
}

// InferenceHandler handles orchestration HTTP requests
type InferenceHandler struct {
	service InferenceService
	logger  *zap.Logger
}

// NewInferenceHandler creates a new InferenceHandler
func NewInferenceHandler(service InferenceService, logger *zap.Logger) *InferenceHandler {
	return &InferenceHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGenerate handles POST /generate
func (h *InferenceHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var body GenerateRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", map[string]interface{}{"body": err.Error()})
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Generate(ctx, body.toServiceRequest(requestID))
	if err != nil {
		h.logger.Warn("generation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write generate response", zap.Error(err))
	}
}

// HandleStats handles GET /stats
func (h *InferenceHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, h.service.Stats()); err != nil {
		h.logger.Error("failed to write stats response", zap.Error(err))
	}
}

// HandleReset handles POST /reset
func (h *InferenceHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset()

	attrs := []zap.Field{zap.String("request_id", middleware.GetRequestIDFromContext(r.Context()))}
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		attrs = append(attrs, zap.String("sub", claims.Subject))
	}
	h.logger.Info("system reset", attrs...)

	if err := utils.WriteMessage(w, resetMessage); err != nil {
		h.logger.Error("failed to write reset response", zap.Error(err))
	}
}

func (b GenerateRequest) toServiceRequest(requestID string) inference.GenerateRequest {
	req := inference.GenerateRequest{
		Prompt:      b.Prompt,
		Preference:  routing.Preference(b.Preference),
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		RequestID:   requestID,
	}
	if req.Preference == "" {
		req.Preference = routing.PreferenceBalanced
	}
	if b.MaxTokens != nil {
		req.MaxTokens = *b.MaxTokens
	}
	if b.Temperature != nil {
		req.Temperature = *b.Temperature
	}
	return req
}
