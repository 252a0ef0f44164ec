package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/llm-orchestrator/internal/observability"
	"github.com/upb/llm-orchestrator/models"
	"github.com/upb/llm-orchestrator/services"
	"github.com/upb/llm-orchestrator/services/cooldown"
	"github.com/upb/llm-orchestrator/services/providers"
	"github.com/upb/llm-orchestrator/services/routing"
	"github.com/upb/llm-orchestrator/services/usage"
	"go.uber.org/zap"
)

// IntentClassifier labels a prompt with an intent
type IntentClassifier interface {
	Classify(prompt string) string
	Confidence(prompt, intent string) float64
}

// RequestRecorder receives the audit trail of each request.
// Implementations must not block.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, log *models.RequestLog) error
}

// Cooldown reasons reported to metrics
const (
	cooldownReasonUsage     = "usage_threshold"
	cooldownReasonRateLimit = "rate_limited"
)

// InferenceService drives a request through selection, the fallback chain
// and usage accounting.
type InferenceService struct {
	router     *routing.Router
	tracker    *usage.Tracker
	cooldowns  *cooldown.Manager
	classifier IntentClassifier
	registry   *providers.Registry
	recorder   RequestRecorder
	metrics    *observability.Metrics
	config     Config
	logger     *zap.Logger
}

// NewInferenceService creates a new InferenceService. recorder and metrics may be nil.
func NewInferenceService(
	router *routing.Router,
	tracker *usage.Tracker,
	cooldowns *cooldown.Manager,
	classifier IntentClassifier,
	registry *providers.Registry,
	recorder RequestRecorder,
	metrics *observability.Metrics,
	config Config,
	logger *zap.Logger,
) *InferenceService {
	defaults := DefaultConfig()
	if config.RateLimitCooldown <= 0 {
		config.RateLimitCooldown = defaults.RateLimitCooldown
	}
	if config.AccountingWindow <= 0 {
		config.AccountingWindow = defaults.AccountingWindow
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &InferenceService{
		router:     router,
		tracker:    tracker,
		cooldowns:  cooldowns,
		classifier: classifier,
		registry:   registry,
		recorder:   recorder,
		metrics:    metrics,
		config:     config,
		logger:     logger,
	}
}

// Generate classifies the prompt, selects a model and walks the fallback
// chain until one attempt succeeds.
//
// The chain is computed once; cooldowns started during the request do not
// change it. Per-attempt failures never abort the chain.
func (s *InferenceService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	if req.Prompt == "" {
		return nil, services.ErrEmptyPrompt
	}
	if req.Preference == "" {
		req.Preference = routing.PreferenceBalanced
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	intent := s.classifier.Classify(req.Prompt)
	logger := s.logger.With(
		zap.String("request_id", req.RequestID),
		zap.String("intent", intent),
	)
	audit := models.NewRequestLog(req.RequestID, intent, string(req.Preference))

	primary, ok := s.router.SelectModel(intent, req.Preference)
	if !ok {
		logger.Warn("no model available for intent")
		s.finish(ctx, audit.WithFailure(models.RequestOutcomeCapacityExhausted, ""), start)
		return nil, services.NewCapacityExhaustedError(intent)
	}

	chain := append([]routing.Selection{primary}, s.router.FallbackChain(intent, primary.Model, s.config.MaxFallbacks)...)

	logger.Info("model selected",
		zap.String("provider", primary.Provider),
		zap.String("model", primary.Model),
		zap.String("preference", string(req.Preference)),
		zap.Int("chain_length", len(chain)))

	var (
		attempts []Attempt
		lastErr  error
	)

	for i, selection := range chain {
		resp, attempt := s.attempt(ctx, selection, req)
		attempts = append(attempts, attempt)
		audit.AddAttempt(attempt.Provider, attempt.Model, attempt.Outcome, attempt.Err, attempt.Latency)
		s.metrics.RecordAttempt(attempt.Provider, attempt.Model, string(attempt.Outcome))

		if attempt.Outcome == models.AttemptOutcomeSuccess {
			result := s.succeed(req, intent, primary, resp, attempts, lastErr, start)
			logger.Info("generation succeeded",
				zap.String("provider", result.Provider),
				zap.String("model", result.ModelUsed),
				zap.Int("attempt", i+1),
				zap.Int("tokens", result.TokensUsed),
				zap.Bool("fallback_used", result.FallbackUsed))
			s.finish(ctx, audit.WithSuccess(result.Provider, result.ModelUsed, result.TokensUsed, result.FallbackUsed), start)
			return result, nil
		}

		lastErr = attempt.Err
		logger.Warn("generation attempt failed",
			zap.String("provider", attempt.Provider),
			zap.String("model", attempt.Model),
			zap.Int("attempt", i+1),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Error(attempt.Err))

		if attempt.Outcome == models.AttemptOutcomeRateLimited {
			s.cooldowns.Trigger(attempt.Model, s.config.RateLimitCooldown)
			s.metrics.RecordCooldown(attempt.Model, cooldownReasonRateLimit)
		}
	}

	tried := TriedModels(attempts)
	logger.Error("all models failed", zap.Strings("tried_models", tried), zap.Error(lastErr))

	lastMsg := ""
	if lastErr != nil {
		lastMsg = lastErr.Error()
	}
	s.finish(ctx, audit.WithFailure(models.RequestOutcomeAllModelsFailed, lastMsg), start)
	return nil, services.NewAllModelsFailedError(tried, lastErr)
}

// attempt runs a single generation call bounded by the request timeout
func (s *InferenceService) attempt(ctx context.Context, selection routing.Selection, req GenerateRequest) (*providers.GenerationResponse, Attempt) {
	attempt := Attempt{Provider: selection.Provider, Model: selection.Model}
	start := time.Now()

	generator, err := s.registry.Get(selection.Provider)
	if err != nil {
		attempt.Outcome = models.AttemptOutcomeUnexpectedError
		attempt.Err = fmt.Errorf("provider %q: %w", selection.Provider, err)
		return nil, attempt
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := generator.Generate(attemptCtx, &providers.GenerationRequest{
		Prompt:      req.Prompt,
		Model:       selection.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	attempt.Latency = time.Since(start)

	switch {
	case err == nil && resp == nil:
		attempt.Outcome = models.AttemptOutcomeUnexpectedError
		attempt.Err = fmt.Errorf("provider %s returned no response", selection.Provider)
	case err == nil:
		attempt.Outcome = models.AttemptOutcomeSuccess
	default:
		attempt.Err = err
		attempt.Outcome = outcomeOf(err)
		if attempt.Outcome == models.AttemptOutcomeUnexpectedError && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			attempt.Outcome = models.AttemptOutcomeTimeout
		}
	}
	return resp, attempt
}

// succeed records usage for the serving model and builds the result
func (s *InferenceService) succeed(
	req GenerateRequest,
	intent string,
	primary routing.Selection,
	resp *providers.GenerationResponse,
	attempts []Attempt,
	lastErr error,
	start time.Time,
) *GenerateResult {
	served := attempts[len(attempts)-1]

	s.tracker.Record(served.Model, resp.Tokens, served.Provider)
	s.metrics.RecordTokens(served.Provider, served.Model, resp.Tokens)

	triggered := s.cooldowns.CheckAndTrigger(served.Model, s.config.AccountingWindow)
	if triggered {
		s.metrics.RecordCooldown(served.Model, cooldownReasonUsage)
	}

	latency := time.Since(start)
	s.metrics.ObserveLatency(served.Model, latency)

	metadata := make(map[string]interface{}, len(resp.Metadata)+4)
	for k, v := range resp.Metadata {
		metadata[k] = v
	}
	metadata["total_latency_seconds"] = providers.RoundSeconds(latency)
	metadata["tried_models"] = TriedModels(attempts)
	metadata["cooldown_triggered"] = triggered
	metadata["request_id"] = req.RequestID

	result := &GenerateResult{
		Text:       resp.Text,
		ModelUsed:  served.Model,
		Provider:   served.Provider,
		TokensUsed: resp.Tokens,
		Intent:     intent,
		Metadata:   metadata,
		Attempts:   attempts,
	}

	if served.Model != primary.Model {
		result.FallbackUsed = true
		reason := "Primary model failed: " + truncate(errorText(lastErr), fallbackReasonLimit)
		result.FallbackReason = &reason
	}
	return result
}

// finish counts the request and hands the audit record to the recorder
func (s *InferenceService) finish(ctx context.Context, log *models.RequestLog, start time.Time) {
	log.WithLatency(time.Since(start))
	s.metrics.RecordRequest(string(log.Outcome))

	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordRequest(ctx, log); err != nil {
		s.logger.Warn("failed to record request audit log",
			zap.String("request_id", log.RequestID),
			zap.Error(err))
	}
}

// outcomeOf maps a tagged generation error to an attempt outcome
func outcomeOf(err error) models.AttemptOutcome {
	switch providers.KindOf(err) {
	case providers.KindRateLimit:
		return models.AttemptOutcomeRateLimited
	case providers.KindTimeout:
		return models.AttemptOutcomeTimeout
	case providers.KindProviderError:
		return models.AttemptOutcomeProviderError
	default:
		return models.AttemptOutcomeUnexpectedError
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
