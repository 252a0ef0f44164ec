package handlers

import (
	"net/http"

	"github.com/upb/llm-orchestrator/services"
	"github.com/upb/llm-orchestrator/utils"
	"go.uber.org/zap"
)

// Messages returned for orchestration failures
const (
	capacityExhaustedMessage = "No models available - all are on cooldown"
	allModelsFailedMessage   = "All models failed"
)

// AllModelsFailedResponse is the 500 body returned when every attempt failed
type AllModelsFailedResponse struct {
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	TriedModels []string `json:"tried_models"`
	LastError   string   `json:"last_error"`
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, err.Error(), details); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsUnauthorizedError(err):
		if err := utils.WriteUnauthorized(w, err.Error()); err != nil {
			logger.Error("failed to write unauthorized response", zap.Error(err))
		}

	case services.IsCapacityExhaustedError(err):
		if err := utils.WriteServiceUnavailable(w, string(services.ErrorTypeCapacityExhausted), capacityExhaustedMessage); err != nil {
			logger.Error("failed to write capacity exhausted response", zap.Error(err))
		}

	case services.IsAllModelsFailedError(err):
		response := AllModelsFailedResponse{
			Error:       string(services.ErrorTypeAllModelsFailed),
			Message:     allModelsFailedMessage,
			TriedModels: []string{},
		}
		if tried, ok := details["tried_models"].([]string); ok {
			response.TriedModels = tried
		}
		if last, ok := details["last_error"].(string); ok {
			response.LastError = last
		}
		if err := utils.WriteJSON(w, http.StatusInternalServerError, response); err != nil {
			logger.Error("failed to write all models failed response", zap.Error(err))
		}

	case services.IsExternalError(err):
		if err := utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse{
			Error:   "bad_gateway",
			Message: err.Error(),
			Details: details,
		}); err != nil {
			logger.Error("failed to write bad gateway response", zap.Error(err))
		}

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		if err := utils.WriteBadRequest(w, "Validation failed", utils.FieldDetails(err)); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
