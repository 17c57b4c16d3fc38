package repositories

import (
	"context"
	"time"

	"github.com/codetrack/ai-gateway/models"
	"github.com/google/uuid"
)

// UsageRepository handles usage record data operations
type UsageRepository interface {
	// Insert inserts a new usage record
	Insert(ctx context.Context, rec *models.UsageRecord) error

	// GetByID retrieves a usage record by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error)

	// List retrieves usage records with pagination, newest first
	List(ctx context.Context, limit, offset int) ([]*models.UsageRecord, error)

	// GetByProvider retrieves usage records for a provider with pagination
	GetByProvider(ctx context.Context, provider string, limit, offset int) ([]*models.UsageRecord, error)

	// GetMetrics retrieves aggregate usage metrics within a date range
	GetMetrics(ctx context.Context, start, end time.Time) (*UsageMetrics, error)
}

// UsageMetrics represents aggregated usage metrics
type UsageMetrics struct {
	TotalRequests     int     `json:"total_requests"`
	CompletedRequests int     `json:"completed_requests"`
	FallbackRequests  int     `json:"fallback_requests"`
	RejectedRequests  int     `json:"rejected_requests"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
	AvgAttempts       float64 `json:"avg_attempts"`
}
