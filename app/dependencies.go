package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/llm-orchestrator/config"
	"github.com/upb/llm-orchestrator/internal/observability"
	"github.com/upb/llm-orchestrator/middleware"
	"github.com/upb/llm-orchestrator/repositories"
	"github.com/upb/llm-orchestrator/repositories/postgres"
	"github.com/upb/llm-orchestrator/services/audit"
	"github.com/upb/llm-orchestrator/services/cooldown"
	"github.com/upb/llm-orchestrator/services/inference"
	"github.com/upb/llm-orchestrator/services/intent"
	"github.com/upb/llm-orchestrator/services/providers"
	"github.com/upb/llm-orchestrator/services/providers/anthropic"
	"github.com/upb/llm-orchestrator/services/providers/openai"
	"github.com/upb/llm-orchestrator/services/routing"
	"github.com/upb/llm-orchestrator/services/usage"
	"go.uber.org/zap"
)

// defaultStopTimeout bounds the audit drain when Close gets a context without deadline
const defaultStopTimeout = 10 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	RequestLogs repositories.RequestLogRepository

	// Orchestration state
	Tracker    *usage.Tracker
	Cooldowns  *cooldown.Manager
	Router     *routing.Router
	Classifier *intent.Classifier

	// Provider Registry
	ProviderRegistry *providers.Registry

	// Services
	Audit     *audit.AuditService
	Inference *inference.InferenceService

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires dependencies around an existing repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initMetrics()

	if err := deps.initProviders(); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initAuth()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase checks the audit database and creates its schema
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if d.DB == nil {
		d.Logger.Info("audit database disabled")
		return nil
	}

	if err := d.DB.HealthCheck(ctx); err != nil {
		return err
	}

	if err := d.RepoFactory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", d.Config.Database.LogString()))
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()
	d.RequestLogs = repos.RequestLogs
	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initMetrics() {
	if d.Config.Observability.MetricsEnabled {
		d.Metrics = observability.NewMetrics()
	}
}

// initProviders registers the mock generators and every configured API adapter
func (d *Dependencies) initProviders() error {
	registry := providers.NewRegistry()

	if err := registry.RegisterMocks(); err != nil {
		return err
	}

	cfg := d.Config.Providers
	if cfg.OpenAI.Enabled() {
		if err := registry.Register(openai.NewAdapter(openai.Config{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		})); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider")
	}

	if cfg.Anthropic.Enabled() {
		if err := registry.Register(anthropic.NewAdapter(anthropic.Config{
			APIKey:            cfg.Anthropic.APIKey,
			BaseURL:           cfg.Anthropic.BaseURL,
			RequestsPerMinute: cfg.Anthropic.RequestsPerMinute,
		})); err != nil {
			return err
		}
		d.Logger.Info("registered Anthropic provider")
	}

	for _, name := range d.Config.Catalog.Providers() {
		if _, err := registry.Get(name); err != nil {
			d.Logger.Warn("catalog references an unregistered provider",
				zap.String("provider", name))
		}
	}

	d.ProviderRegistry = registry
	d.Logger.Info("providers initialized", zap.Strings("providers", registry.Names()))
	return nil
}

// initServices builds the orchestration state and starts the audit writer
func (d *Dependencies) initServices() error {
	o := d.Config.Orchestration

	d.Tracker = usage.NewTracker(usage.WithRetention(o.UsageWindow))
	d.Cooldowns = cooldown.NewManager(d.Tracker, cooldown.Config{
		Threshold: o.TokenThreshold,
		Duration:  o.CooldownDuration,
	}, d.Logger.Named("cooldown"))
	d.Router = routing.NewRouter(d.Config.Catalog, d.Cooldowns, d.Logger.Named("router"))
	d.Classifier = intent.NewClassifier()

	d.Audit = audit.NewAuditService(d.RequestLogs, d.Logger.Named("audit"), audit.Config{
		BufferSize:   d.Config.Audit.BufferSize,
		WorkerCount:  d.Config.Audit.Workers,
		WriteTimeout: d.Config.Audit.WriteTimeout,
	})
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	d.Inference = inference.NewInferenceService(
		d.Router,
		d.Tracker,
		d.Cooldowns,
		d.Classifier,
		d.ProviderRegistry,
		d.Audit,
		d.Metrics,
		inference.Config{
			RateLimitCooldown: o.RateLimitCooldown,
			AccountingWindow:  o.UsageWindow,
			MaxFallbacks:      o.MaxFallbacks,
			RequestTimeout:    o.RequestTimeout,
		},
		d.Logger.Named("inference"),
	)
	return nil
}

func (d *Dependencies) initAuth() {
	if d.Config.Auth.AdminJWTSecret == "" {
		d.Logger.Warn("ADMIN_JWT_SECRET not set, admin routes are unprotected")
		d.AuthMiddleware = middleware.NewAuthMiddleware(nil, d.Logger)
		return
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(
		middleware.NewHMACValidator(d.Config.Auth.AdminJWTSecret), d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Audit != nil {
		timeout := defaultStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil && !errors.Is(err, audit.ErrNotStarted) {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
