package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/llm-orchestrator/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return Wrap(db, logger), nil
}

// Wrap adopts an already opened pool
func Wrap(db *sql.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema creates the request audit tables
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS request_logs (
			id UUID PRIMARY KEY,
			request_id VARCHAR(255) NOT NULL,
			intent VARCHAR(100) NOT NULL,
			preference VARCHAR(50) NOT NULL,
			outcome VARCHAR(50) NOT NULL,
			model_used VARCHAR(100),
			provider VARCHAR(100),
			tokens_used INTEGER NOT NULL DEFAULT 0,
			fallback_used BOOLEAN NOT NULL DEFAULT false,
			tried_models TEXT[] NOT NULL DEFAULT '{}',
			last_error TEXT,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS request_attempts (
			request_log_id UUID NOT NULL REFERENCES request_logs(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			provider VARCHAR(100) NOT NULL,
			model VARCHAR(100) NOT NULL,
			outcome VARCHAR(50) NOT NULL,
			error TEXT,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (request_log_id, sequence)
		);

		CREATE INDEX IF NOT EXISTS idx_request_logs_request_id ON request_logs(request_id);
		CREATE INDEX IF NOT EXISTS idx_request_logs_created_at ON request_logs(created_at);
		CREATE INDEX IF NOT EXISTS idx_request_logs_outcome ON request_logs(outcome);
		CREATE INDEX IF NOT EXISTS idx_request_attempts_model ON request_attempts(model);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
