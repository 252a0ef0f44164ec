package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestOutcome is the final status of an orchestrated request
type RequestOutcome string

const (
	RequestOutcomeSuccess           RequestOutcome = "success"
	RequestOutcomeCapacityExhausted RequestOutcome = "capacity_exhausted"
	RequestOutcomeAllModelsFailed   RequestOutcome = "all_models_failed"
)

// AttemptOutcome is the result of one generation attempt
type AttemptOutcome string

const (
	AttemptOutcomeSuccess         AttemptOutcome = "success"
	AttemptOutcomeRateLimited     AttemptOutcome = "rate_limited"
	AttemptOutcomeTimeout         AttemptOutcome = "timeout"
	AttemptOutcomeProviderError   AttemptOutcome = "provider_error"
	AttemptOutcomeUnexpectedError AttemptOutcome = "unexpected_error"
)

// RequestLog is the audit record of one orchestrated request
type RequestLog struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	RequestID    string         `json:"request_id" db:"request_id"`
	Intent       string         `json:"intent" db:"intent"`
	Preference   string         `json:"preference" db:"preference"`
	Outcome      RequestOutcome `json:"outcome" db:"outcome"`
	ModelUsed    *string        `json:"model_used,omitempty" db:"model_used"`
	Provider     *string        `json:"provider,omitempty" db:"provider"`
	TokensUsed   int            `json:"tokens_used" db:"tokens_used"`
	FallbackUsed bool           `json:"fallback_used" db:"fallback_used"`
	TriedModels  []string       `json:"tried_models" db:"tried_models"`
	LastError    *string        `json:"last_error,omitempty" db:"last_error"`
	LatencyMs    int            `json:"latency_ms" db:"latency_ms"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`

	Attempts []AttemptLog `json:"attempts" db:"-"`
}

// AttemptLog is one entry of a request's attempt trail
type AttemptLog struct {
	RequestLogID uuid.UUID      `json:"request_log_id" db:"request_log_id"`
	Sequence     int            `json:"sequence" db:"sequence"`
	Provider     string         `json:"provider" db:"provider"`
	Model        string         `json:"model" db:"model"`
	Outcome      AttemptOutcome `json:"outcome" db:"outcome"`
	Error        *string        `json:"error,omitempty" db:"error"`
	LatencyMs    int            `json:"latency_ms" db:"latency_ms"`
}

// TableName returns the table name for RequestLog
func (RequestLog) TableName() string {
	return "request_logs"
}

// TableName returns the table name for AttemptLog
func (AttemptLog) TableName() string {
	return "request_attempts"
}

// NewRequestLog creates a request log with a fresh id
func NewRequestLog(requestID, intent, preference string) *RequestLog {
	return &RequestLog{
		ID:          uuid.New(),
		RequestID:   requestID,
		Intent:      intent,
		Preference:  preference,
		TriedModels: []string{},
		CreatedAt:   time.Now(),
	}
}

// AddAttempt appends an attempt and its model to the tried list
func (r *RequestLog) AddAttempt(provider, model string, outcome AttemptOutcome, err error, latency time.Duration) *RequestLog {
	attempt := AttemptLog{
		RequestLogID: r.ID,
		Sequence:     len(r.Attempts) + 1,
		Provider:     provider,
		Model:        model,
		Outcome:      outcome,
		LatencyMs:    int(latency.Milliseconds()),
	}
	if err != nil {
		msg := err.Error()
		attempt.Error = &msg
	}
	r.Attempts = append(r.Attempts, attempt)
	r.TriedModels = append(r.TriedModels, model)
	return r
}

// WithSuccess marks the request as served by model
func (r *RequestLog) WithSuccess(provider, model string, tokens int, fallbackUsed bool) *RequestLog {
	r.Outcome = RequestOutcomeSuccess
	r.Provider = &provider
	r.ModelUsed = &model
	r.TokensUsed = tokens
	r.FallbackUsed = fallbackUsed
	return r
}

// WithFailure marks the request as failed
func (r *RequestLog) WithFailure(outcome RequestOutcome, lastErr string) *RequestLog {
	r.Outcome = outcome
	if lastErr != "" {
		r.LastError = &lastErr
	}
	return r
}

// WithLatency sets the end-to-end latency
func (r *RequestLog) WithLatency(d time.Duration) *RequestLog {
	r.LatencyMs = int(d.Milliseconds())
	return r
}
