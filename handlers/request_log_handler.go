package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/llm-orchestrator/models"
	"github.com/upb/llm-orchestrator/repositories"
	"github.com/upb/llm-orchestrator/utils"
	"go.uber.org/zap"
)

const (
	maxListLimit         = 500
	defaultSummaryWindow = time.Hour
)

// RequestLogList is the response of GET /requests
type RequestLogList struct {
	Requests []*models.RequestLog `json:"requests"`
	Count    int                  `json:"count"`
}

// OutcomeSummary is the response of GET /requests/summary
type OutcomeSummary struct {
	Since    time.Time                     `json:"since"`
	Outcomes map[models.RequestOutcome]int `json:"outcomes"`
}

// RequestLogHandler serves the request audit trail
type RequestLogHandler struct {
	repo   repositories.RequestLogRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewRequestLogHandler creates a new RequestLogHandler
func NewRequestLogHandler(repo repositories.RequestLogRepository, logger *zap.Logger) *RequestLogHandler {
	return &RequestLogHandler{repo: repo, logger: logger, now: time.Now}
}

// HandleList handles GET /requests?limit=N
func (h *RequestLogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			_ = utils.WriteBadRequest(w, "limit must be between 1 and 500", nil)
			return
		}
		limit = n
	}

	logs, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list request logs", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to list requests")
		return
	}
	if logs == nil {
		logs = []*models.RequestLog{}
	}

	if err := utils.WriteOK(w, RequestLogList{Requests: logs, Count: len(logs)}); err != nil {
		h.logger.Error("failed to write request list response", zap.Error(err))
	}
}

// HandleGet handles GET /requests/{request_id}
func (h *RequestLogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")

	log, err := h.repo.GetByRequestID(r.Context(), requestID)
	if errors.Is(err, repositories.ErrNotFound) {
		_ = utils.WriteNotFound(w, "Request not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load request log",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to load request")
		return
	}

	if err := utils.WriteOK(w, log); err != nil {
		h.logger.Error("failed to write request response", zap.Error(err))
	}
}

// HandleSummary handles GET /requests/summary?window=1h
func (h *RequestLogHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	window := defaultSummaryWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			_ = utils.WriteBadRequest(w, "window must be a positive duration", nil)
			return
		}
		window = d
	}

	since := h.now().Add(-window).UTC()
	counts, err := h.repo.CountByOutcome(r.Context(), since)
	if err != nil {
		h.logger.Error("failed to count request outcomes", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to summarize requests")
		return
	}
	if counts == nil {
		counts = map[models.RequestOutcome]int{}
	}

	if err := utils.WriteOK(w, OutcomeSummary{Since: since, Outcomes: counts}); err != nil {
		h.logger.Error("failed to write summary response", zap.Error(err))
	}
}
