package app

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-orchestrator/config"
	"github.com/upb/llm-orchestrator/models"
	"github.com/upb/llm-orchestrator/repositories/postgres"
	"github.com/upb/llm-orchestrator/services/inference"
	"github.com/upb/llm-orchestrator/services/providers"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	catalog := models.DefaultCatalog()
	for name, m := range catalog.Models {
		m.Provider = providers.MockSuccessName
		catalog.Models[name] = m
	}

	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: 8000},
		Orchestration: config.OrchestrationConfig{
			TokenThreshold:    5000,
			CooldownDuration:  300 * time.Second,
			RateLimitCooldown: 600 * time.Second,
			UsageWindow:       time.Hour,
			MaxFallbacks:      3,
			RequestTimeout:    5 * time.Second,
		},
		Audit:         config.AuditConfig{BufferSize: 16, Workers: 1, WriteTimeout: time.Second},
		Observability: config.ObservabilityConfig{LogLevel: "info", MetricsEnabled: true},
		Catalog:       catalog,
	}
}

func TestNewDependencies(t *testing.T) {
	t.Run("initializes without a database", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.Nil(t, deps.DB)
		assert.IsType(t, postgres.NoopRequestLogRepository{}, deps.RequestLogs)
		assert.NotNil(t, deps.Metrics)
		assert.Equal(t, 3, deps.ProviderRegistry.Count())
		assert.False(t, deps.AuthMiddleware.Enabled())
		assert.True(t, deps.Audit.GetStats().Started)

		assert.NoError(t, deps.Close(ctx))
		assert.False(t, deps.Audit.GetStats().Started)
	})

	t.Run("registers API adapters when keys are set", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Providers.OpenAI = config.ProviderConfig{APIKey: "sk-test", BaseURL: "http://localhost"}
		cfg.Providers.Anthropic = config.ProviderConfig{APIKey: "ak-test", BaseURL: "http://localhost"}
		cfg.Auth.AdminJWTSecret = "secret"

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(context.Background())

		assert.Equal(t, 5, deps.ProviderRegistry.Count())
		assert.Contains(t, deps.ProviderRegistry.Names(), "openai")
		assert.Contains(t, deps.ProviderRegistry.Names(), "anthropic")
		assert.True(t, deps.AuthMiddleware.Enabled())
	})

	t.Run("metrics can be disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Observability.MetricsEnabled = false

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(context.Background())

		assert.Nil(t, deps.Metrics)
	})

	t.Run("orchestration is wired end to end", func(t *testing.T) {
		cfg := testConfig(t)

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(context.Background())

		result, err := deps.Inference.Generate(context.Background(), inference.GenerateRequest{
			Prompt:      "Write a python function that reverses a list",
			MaxTokens:   100,
			Temperature: 0.7,
		})
		require.NoError(t, err)
		assert.Equal(t, "gpt-4", result.ModelUsed)
		assert.Equal(t, providers.MockSuccessName, result.Provider)
		assert.Equal(t, result.TokensUsed, deps.Tracker.TotalUsage("gpt-4"))
	})
}

func TestNewDependenciesWithFactory(t *testing.T) {
	t.Run("creates schema on a configured database", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)

		logger := zaptest.NewLogger(t)
		factory := postgres.NewRepositoryFactoryFromDB(postgres.Wrap(sqlDB, logger), logger)

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS request_logs")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectClose()

		deps, err := NewDependenciesWithFactory(context.Background(), testConfig(t), factory, logger)
		require.NoError(t, err)

		assert.NotNil(t, deps.DB)
		assert.IsType(t, &postgres.RequestLogRepository{}, deps.RequestLogs)

		require.NoError(t, deps.Close(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when the database is unreachable", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer sqlDB.Close()

		logger := zaptest.NewLogger(t)
		factory := postgres.NewRepositoryFactoryFromDB(postgres.Wrap(sqlDB, logger), logger)

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		deps, err := NewDependenciesWithFactory(context.Background(), testConfig(t), factory, logger)
		require.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}
