package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-orchestrator/middleware"
	"github.com/upb/llm-orchestrator/services"
	"github.com/upb/llm-orchestrator/services/inference"
	"github.com/upb/llm-orchestrator/services/routing"
	"github.com/upb/llm-orchestrator/utils"
	"go.uber.org/zap"
)

// MockInferenceService is a mock implementation of InferenceService
type MockInferenceService struct {
	mock.Mock
}

func (m *MockInferenceService) Generate(ctx context.Context, req inference.GenerateRequest) (*inference.GenerateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inference.GenerateResult), args.Error(1)
}

func (m *MockInferenceService) Stats() inference.SystemStats {
	return m.Called().Get(0).(inference.SystemStats)
}

func (m *MockInferenceService) Reset() {
	m.Called()
}

func newGenerateRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/generate", &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithRequestID(req.Context(), "req-1"))
}

func TestHandleGenerate(t *testing.T) {
	logger := zap.NewNop()

	t.Run("successful generation applies defaults", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewInferenceHandler(mockService, logger)

		result := &inference.GenerateResult{
			Text:       "def reverse(xs): return xs[::-1]",
			ModelUsed:  "gpt-4",
			Provider:   "mock_success",
			TokensUsed: 42,
			Intent:     "code_generation",
			Metadata:   map[string]interface{}{"request_id": "req-1"},
		}

		mockService.On("Generate", mock.Anything, inference.GenerateRequest{
			Prompt:      "Write a python function",
			Preference:  routing.PreferenceBalanced,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
			RequestID:   "req-1",
		}).Return(result, nil)

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, map[string]string{"prompt": "Write a python function"}))

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "gpt-4", response["model_used"])
		assert.Equal(t, "mock_success", response["provider"])
		assert.EqualValues(t, 42, response["tokens_used"])
		assert.Equal(t, false, response["fallback_used"])
		assert.Contains(t, response, "fallback_reason")
		assert.Nil(t, response["fallback_reason"])
		mockService.AssertExpectations(t)
	})

	t.Run("explicit parameters are forwarded", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewInferenceHandler(mockService, logger)

		mockService.On("Generate", mock.Anything, mock.MatchedBy(func(req inference.GenerateRequest) bool {
			return req.Preference == routing.PreferenceCost && req.MaxTokens == 50 && req.Temperature == 0
		})).Return(&inference.GenerateResult{ModelUsed: "claude-haiku-4"}, nil)

		body := `{"prompt": "hi", "preference": "cost", "max_tokens": 50, "temperature": 0}`
		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, body))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	validationCases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing prompt", `{}`, "prompt"},
		{"empty prompt", `{"prompt": ""}`, "prompt"},
		{"unknown preference", `{"prompt": "hi", "preference": "fastest"}`, "preference"},
		{"zero max tokens", `{"prompt": "hi", "max_tokens": 0}`, "max_tokens"},
		{"temperature above range", `{"prompt": "hi", "temperature": 2.1}`, "temperature"},
	}
	for _, tt := range validationCases {
		t.Run("validation: "+tt.name, func(t *testing.T) {
			mockService := new(MockInferenceService)
			handler := NewInferenceHandler(mockService, logger)

			w := httptest.NewRecorder()
			handler.HandleGenerate(w, newGenerateRequest(t, tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Contains(t, response.Details, tt.field)
			mockService.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewInferenceHandler(mockService, logger)

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, `{"prompt": `))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid request body")
		mockService.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("capacity exhausted maps to 503", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewInferenceHandler(mockService, logger)

		mockService.On("Generate", mock.Anything, mock.Anything).
			Return(nil, services.NewCapacityExhaustedError("general"))

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, `{"prompt": "hello"}`))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"capacity_exhausted"`)
	})

	t.Run("all models failed maps to 500", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewInferenceHandler(mockService, logger)

		mockService.On("Generate", mock.Anything, mock.Anything).
			Return(nil, services.NewAllModelsFailedError([]string{"gpt-4"}, errors.New("Request timeout")))

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, `{"prompt": "hello"}`))

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var response AllModelsFailedResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, []string{"gpt-4"}, response.TriedModels)
		assert.Equal(t, "Request timeout", response.LastError)
	})
}

func TestHandleStats(t *testing.T) {
	mockService := new(MockInferenceService)
	handler := NewInferenceHandler(mockService, zap.NewNop())

	mockService.On("Stats").Return(inference.SystemStats{
		TotalRequests: 300,
		Models: []inference.ModelStats{
			{Model: "gpt-4", TotalTokens: 150, LastHourTokens: 150},
		},
		ActiveCooldowns:  map[string]int{},
		CooldownTriggers: map[string]int{},
	})

	w := httptest.NewRecorder()
	handler.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"total_requests": 300,
		"models": [{
			"model": "gpt-4",
			"total_tokens": 150,
			"last_hour_tokens": 150,
			"on_cooldown": false,
			"cooldown_remaining_seconds": 0
		}],
		"active_cooldowns": {},
		"cooldown_triggers": {}
	}`, w.Body.String())
}

func TestHandleReset(t *testing.T) {
	mockService := new(MockInferenceService)
	handler := NewInferenceHandler(mockService, zap.NewNop())
	mockService.On("Reset").Return()

	w := httptest.NewRecorder()
	handler.HandleReset(w, httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader("")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "System reset successful"}`, w.Body.String())
	mockService.AssertExpectations(t)
}
