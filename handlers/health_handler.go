package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/llm-orchestrator/repositories/postgres"
	"github.com/upb/llm-orchestrator/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status             string  `json:"status"`
	Timestamp          float64 `json:"timestamp"`
	ProvidersAvailable int     `json:"providers_available"`
}

// ReadinessResponse represents the readiness response
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// ProviderCounter reports how many generators are registered
type ProviderCounter interface {
	ProvidersAvailable() int
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db        *postgres.DB
	providers ProviderCounter
	logger    *zap.Logger
	now       func() time.Time
}

// NewHealthHandler creates a new HealthHandler. db is nil when the audit
// database is not configured.
func NewHealthHandler(db *postgres.DB, providers ProviderCounter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		providers: providers,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleHealth handles GET /health
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	response := HealthResponse{
		Status:             "healthy",
		Timestamp:          float64(now.UnixMilli()) / 1000,
		ProvidersAvailable: h.providers.ProvidersAvailable(),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /health/ready
// Readiness check - validates that all dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	switch err := h.checkDatabase(ctx); {
	case h.db == nil:
		checks["database"] = "disabled"
	case err != nil:
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	default:
		checks["database"] = "healthy"
	}

	if h.providers.ProvidersAvailable() == 0 {
		checks["providers"] = "none_configured"
		allHealthy = false
	} else {
		checks["providers"] = "configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := ReadinessResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.HealthCheck(ctx)
}
