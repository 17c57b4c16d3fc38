package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codetrack/ai-gateway/models"
	"github.com/codetrack/ai-gateway/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UsageRepository implements the repositories.UsageRepository interface
type UsageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB, logger *zap.Logger) repositories.UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new usage record
func (r *UsageRepository) Insert(ctx context.Context, rec *models.UsageRecord) error {
	query := `
		INSERT INTO usage_records (
			id, task_kind, provider, outcome, attempts,
			prompt_chars, response_chars, latency_ms, failure_reason, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.TaskKind,
		rec.Provider,
		rec.Outcome,
		rec.Attempts,
		rec.PromptChars,
		rec.ResponseChars,
		rec.LatencyMs,
		rec.FailureReason,
		rec.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	r.logger.Debug("usage record inserted",
		zap.String("id", rec.ID.String()),
		zap.String("provider", rec.Provider))
	return nil
}

// GetByID retrieves a usage record by ID
func (r *UsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	query := `
		SELECT id, task_kind, provider, outcome, attempts,
		       prompt_chars, response_chars, latency_ms, failure_reason, created_at
		FROM usage_records
		WHERE id = $1
	`

	rec := &models.UsageRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.TaskKind,
		&rec.Provider,
		&rec.Outcome,
		&rec.Attempts,
		&rec.PromptChars,
		&rec.ResponseChars,
		&rec.LatencyMs,
		&rec.FailureReason,
		&rec.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("usage record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}

	return rec, nil
}

// List retrieves usage records with pagination, newest first
func (r *UsageRepository) List(ctx context.Context, limit, offset int) ([]*models.UsageRecord, error) {
	query := `
		SELECT id, task_kind, provider, outcome, attempts,
		       prompt_chars, response_chars, latency_ms, failure_reason, created_at
		FROM usage_records
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryUsageRecords(ctx, query, limit, offset)
}

// GetByProvider retrieves usage records for a provider with pagination
func (r *UsageRepository) GetByProvider(ctx context.Context, provider string, limit, offset int) ([]*models.UsageRecord, error) {
	query := `
		SELECT id, task_kind, provider, outcome, attempts,
		       prompt_chars, response_chars, latency_ms, failure_reason, created_at
		FROM usage_records
		WHERE provider = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryUsageRecords(ctx, query, provider, limit, offset)
}

// GetMetrics retrieves aggregate usage metrics within a date range
func (r *UsageRepository) GetMetrics(ctx context.Context, start, end time.Time) (*repositories.UsageMetrics, error) {
	query := `
		SELECT
			COUNT(*) as total_requests,
			COUNT(CASE WHEN outcome = 'completed' THEN 1 END) as completed_requests,
			COUNT(CASE WHEN outcome = 'fallback' THEN 1 END) as fallback_requests,
			COUNT(CASE WHEN outcome = 'rejected' THEN 1 END) as rejected_requests,
			COALESCE(AVG(latency_ms), 0) as avg_latency_ms,
			COALESCE(AVG(attempts), 0) as avg_attempts
		FROM usage_records
		WHERE created_at >= $1 AND created_at <= $2
	`

	metrics := &repositories.UsageMetrics{}
	err := r.db.QueryRowContext(ctx, query, start, end).Scan(
		&metrics.TotalRequests,
		&metrics.CompletedRequests,
		&metrics.FallbackRequests,
		&metrics.RejectedRequests,
		&metrics.AvgLatencyMs,
		&metrics.AvgAttempts,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get usage metrics: %w", err)
	}

	return metrics, nil
}

// queryUsageRecords is a helper method to query multiple usage records
func (r *UsageRepository) queryUsageRecords(ctx context.Context, query string, args ...interface{}) ([]*models.UsageRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		rec := &models.UsageRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.TaskKind,
			&rec.Provider,
			&rec.Outcome,
			&rec.Attempts,
			&rec.PromptChars,
			&rec.ResponseChars,
			&rec.LatencyMs,
			&rec.FailureReason,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage record rows: %w", err)
	}

	return records, nil
}
