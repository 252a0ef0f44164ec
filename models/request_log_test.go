package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestLog(t *testing.T) {
	log := NewRequestLog("req-1", "writing", "balanced")

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, "req-1", log.RequestID)
	assert.Equal(t, "writing", log.Intent)
	assert.Equal(t, "balanced", log.Preference)
	assert.NotNil(t, log.TriedModels)
	assert.Empty(t, log.Attempts)
	assert.False(t, log.CreatedAt.IsZero())
}

func TestRequestLog_AddAttempt(t *testing.T) {
	log := NewRequestLog("req-2", "general", "cost").
		AddAttempt("openai", "gpt-3.5-turbo", AttemptOutcomeRateLimited, errors.New("rate limited"), 120*time.Millisecond).
		AddAttempt("anthropic", "claude-haiku-4", AttemptOutcomeSuccess, nil, 80*time.Millisecond)

	require.Len(t, log.Attempts, 2)
	assert.Equal(t, []string{"gpt-3.5-turbo", "claude-haiku-4"}, log.TriedModels)

	first := log.Attempts[0]
	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, log.ID, first.RequestLogID)
	assert.Equal(t, AttemptOutcomeRateLimited, first.Outcome)
	require.NotNil(t, first.Error)
	assert.Equal(t, "rate limited", *first.Error)
	assert.Equal(t, 120, first.LatencyMs)

	second := log.Attempts[1]
	assert.Equal(t, 2, second.Sequence)
	assert.Nil(t, second.Error)
}

func TestRequestLog_Outcomes(t *testing.T) {
	success := NewRequestLog("a", "general", "balanced").
		WithSuccess("openai", "gpt-4", 150, true).
		WithLatency(1500 * time.Millisecond)

	assert.Equal(t, RequestOutcomeSuccess, success.Outcome)
	require.NotNil(t, success.ModelUsed)
	assert.Equal(t, "gpt-4", *success.ModelUsed)
	assert.Equal(t, "openai", *success.Provider)
	assert.Equal(t, 150, success.TokensUsed)
	assert.True(t, success.FallbackUsed)
	assert.Equal(t, 1500, success.LatencyMs)
	assert.Nil(t, success.LastError)

	failed := NewRequestLog("b", "general", "balanced").
		WithFailure(RequestOutcomeAllModelsFailed, "timeout")
	assert.Equal(t, RequestOutcomeAllModelsFailed, failed.Outcome)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "timeout", *failed.LastError)
	assert.Nil(t, failed.ModelUsed)

	exhausted := NewRequestLog("c", "general", "balanced").
		WithFailure(RequestOutcomeCapacityExhausted, "")
	assert.Nil(t, exhausted.LastError)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "request_logs", RequestLog{}.TableName())
	assert.Equal(t, "request_attempts", AttemptLog{}.TableName())
}
