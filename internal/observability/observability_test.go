package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"json info", "info", "json", false},
		{"console debug", "debug", "text", false},
		{"uppercase level", "WARN", "json", false},
		{"invalid level", "loud", "json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("success")
	m.RecordRequest("success")
	m.RecordAttempt("openai", "gpt-4", "rate_limited")
	m.RecordTokens("openai", "gpt-4", 120)
	m.RecordTokens("openai", "gpt-4", 0)
	m.RecordCooldown("gpt-4", "rate_limited")
	m.ObserveLatency("gpt-4", 250*time.Millisecond)

	body := scrape(t, m)

	assert.Contains(t, body, `orchestrator_requests_total{status="success"} 2`)
	assert.Contains(t, body, `orchestrator_attempts_total{model="gpt-4",outcome="rate_limited",provider="openai"} 1`)
	assert.Contains(t, body, `orchestrator_tokens_total{model="gpt-4",provider="openai"} 120`)
	assert.Contains(t, body, `orchestrator_cooldowns_triggered_total{model="gpt-4",reason="rate_limited"} 1`)
	assert.Contains(t, body, `orchestrator_request_latency_seconds_count{model="gpt-4"} 1`)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("all_models_failed")

	body := scrape(t, m)

	assert.True(t, strings.Contains(body, `orchestrator_requests_total{status="all_models_failed"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordRequest("success")
		m.RecordAttempt("p", "m", "success")
		m.RecordTokens("p", "m", 10)
		m.RecordCooldown("m", "usage_threshold")
		m.ObserveLatency("m", time.Second)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
