package postgres

import (
	"context"

	"github.com/upb/llm-orchestrator/config"
	"github.com/upb/llm-orchestrator/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories.
// Without a configured database it hands out no-op repositories.
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory connects to the configured database, if any
func NewRepositoryFactory(cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	f := &RepositoryFactory{logger: logger}
	if !cfg.Enabled() {
		logger.Info("database not configured, request audit log disabled")
		return f, nil
	}

	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	f.db = db
	return f, nil
}

// NewRepositoryFactoryFromDB builds a factory around an existing pool
func NewRepositoryFactoryFromDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// InitSchema creates the audit tables when a database is configured
func (f *RepositoryFactory) InitSchema(ctx context.Context) error {
	if f.db == nil {
		return nil
	}
	return f.db.InitSchema(ctx)
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	if f.db == nil {
		return &repositories.Repositories{
			RequestLogs: NewNoopRequestLogRepository(),
		}
	}
	return &repositories.Repositories{
		RequestLogs: NewRequestLogRepository(f.db, f.logger),
	}
}

// GetDB returns the database connection, nil when not configured
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	if f.db == nil {
		return nil
	}
	return f.db.Close()
}
