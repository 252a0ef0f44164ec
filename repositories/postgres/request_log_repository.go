package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/upb/llm-orchestrator/models"
	"github.com/upb/llm-orchestrator/repositories"
	"go.uber.org/zap"
)

// RequestLogRepository implements repositories.RequestLogRepository
type RequestLogRepository struct {
	db     *DB
	tm     repositories.TransactionManager
	logger *zap.Logger
}

// NewRequestLogRepository creates a new request log repository
func NewRequestLogRepository(db *DB, logger *zap.Logger) repositories.RequestLogRepository {
	return &RequestLogRepository{
		db:     db,
		tm:     NewTransactionManager(db, logger),
		logger: logger,
	}
}

const requestLogColumns = `id, request_id, intent, preference, outcome, model_used, provider,
	tokens_used, fallback_used, tried_models, last_error, latency_ms, created_at`

// Insert writes the request row and its attempts in one transaction
func (r *RequestLogRepository) Insert(ctx context.Context, log *models.RequestLog) error {
	return r.tm.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		executor := GetExecutor(ctx, r.db)

		_, err := executor.ExecContext(ctx, `
			INSERT INTO request_logs (`+requestLogColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			log.ID,
			log.RequestID,
			log.Intent,
			log.Preference,
			log.Outcome,
			log.ModelUsed,
			log.Provider,
			log.TokensUsed,
			log.FallbackUsed,
			pq.Array(log.TriedModels),
			log.LastError,
			log.LatencyMs,
			log.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert request log: %w", err)
		}

		for _, attempt := range log.Attempts {
			_, err := executor.ExecContext(ctx, `
				INSERT INTO request_attempts (
					request_log_id, sequence, provider, model, outcome, error, latency_ms
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				log.ID,
				attempt.Sequence,
				attempt.Provider,
				attempt.Model,
				attempt.Outcome,
				attempt.Error,
				attempt.LatencyMs,
			)
			if err != nil {
				return fmt.Errorf("failed to insert attempt %d: %w", attempt.Sequence, err)
			}
		}

		r.logger.Debug("request log inserted",
			zap.String("id", log.ID.String()),
			zap.String("request_id", log.RequestID),
			zap.Int("attempts", len(log.Attempts)),
		)
		return nil
	})
}

// GetByRequestID retrieves the newest log for requestID together with its attempts
func (r *RequestLogRepository) GetByRequestID(ctx context.Context, requestID string) (*models.RequestLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+requestLogColumns+`
		FROM request_logs
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, requestID)

	log, err := scanRequestLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request log: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT request_log_id, sequence, provider, model, outcome, error, latency_ms
		FROM request_attempts
		WHERE request_log_id = $1
		ORDER BY sequence`, log.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.AttemptLog
		if err := rows.Scan(&a.RequestLogID, &a.Sequence, &a.Provider, &a.Model, &a.Outcome, &a.Error, &a.LatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		log.Attempts = append(log.Attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attempts: %w", err)
	}

	return log, nil
}

// ListRecent returns up to limit request logs, newest first
func (r *RequestLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+requestLogColumns+`
		FROM request_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.RequestLog, 0)
	for rows.Next() {
		log, err := scanRequestLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate request logs: %w", err)
	}
	return logs, nil
}

// CountByOutcome counts requests created at or after since, grouped by outcome
func (r *RequestLogRepository) CountByOutcome(ctx context.Context, since time.Time) (map[models.RequestOutcome]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM request_logs
		WHERE created_at >= $1
		GROUP BY outcome`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count request logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RequestOutcome]int)
	for rows.Next() {
		var (
			outcome models.RequestOutcome
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcome counts: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequestLog(s scanner) (*models.RequestLog, error) {
	var log models.RequestLog
	err := s.Scan(
		&log.ID,
		&log.RequestID,
		&log.Intent,
		&log.Preference,
		&log.Outcome,
		&log.ModelUsed,
		&log.Provider,
		&log.TokensUsed,
		&log.FallbackUsed,
		pq.Array(&log.TriedModels),
		&log.LastError,
		&log.LatencyMs,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// NoopRequestLogRepository discards writes. Used when no database is configured.
type NoopRequestLogRepository struct{}

// NewNoopRequestLogRepository creates a repository that stores nothing
func NewNoopRequestLogRepository() repositories.RequestLogRepository {
	return NoopRequestLogRepository{}
}

// Insert discards log
func (NoopRequestLogRepository) Insert(context.Context, *models.RequestLog) error {
	return nil
}

// GetByRequestID always reports not found
func (NoopRequestLogRepository) GetByRequestID(context.Context, string) (*models.RequestLog, error) {
	return nil, repositories.ErrNotFound
}

// ListRecent returns an empty list
func (NoopRequestLogRepository) ListRecent(context.Context, int) ([]*models.RequestLog, error) {
	return []*models.RequestLog{}, nil
}

// CountByOutcome returns an empty map
func (NoopRequestLogRepository) CountByOutcome(context.Context, time.Time) (map[models.RequestOutcome]int, error) {
	return map[models.RequestOutcome]int{}, nil
}
