package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/upb/llm-orchestrator/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// RequestLogRepository persists the audit trail of orchestrated requests
type RequestLogRepository interface {
	// Insert stores the request row and all of its attempts
	Insert(ctx context.Context, log *models.RequestLog) error

	// GetByRequestID retrieves a request log with its attempts
	GetByRequestID(ctx context.Context, requestID string) (*models.RequestLog, error)

	// ListRecent returns the newest request logs without attempts
	ListRecent(ctx context.Context, limit int) ([]*models.RequestLog, error)

	// CountByOutcome aggregates requests created at or after since
	CountByOutcome(ctx context.Context, since time.Time) (map[models.RequestOutcome]int, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	RequestLogs RequestLogRepository
}
