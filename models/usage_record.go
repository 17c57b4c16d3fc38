package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageOutcome represents the final outcome of a routed AI request
type UsageOutcome string

const (
	UsageOutcomeCompleted UsageOutcome = "completed" // Answered by an upstream provider
	UsageOutcomeFallback  UsageOutcome = "fallback"  // Answered by the local fallback catalog
	UsageOutcomeRejected  UsageOutcome = "rejected"  // Rejected before any provider was tried
)

// UsageRecord represents one routed AI request for bookkeeping
type UsageRecord struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	TaskKind      string       `json:"task_kind" db:"task_kind"`
	Provider      string       `json:"provider" db:"provider"`
	Outcome       UsageOutcome `json:"outcome" db:"outcome"`
	Attempts      int          `json:"attempts" db:"attempts"`
	PromptChars   int          `json:"prompt_chars" db:"prompt_chars"`
	ResponseChars int          `json:"response_chars" db:"response_chars"`
	LatencyMs     int          `json:"latency_ms" db:"latency_ms"`
	FailureReason *string      `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the UsageRecord model
func (UsageRecord) TableName() string {
	return "usage_records"
}

// NewUsageRecord creates a new UsageRecord instance
func NewUsageRecord(taskKind, provider string, outcome UsageOutcome) *UsageRecord {
	return &UsageRecord{
		ID:        uuid.New(),
		TaskKind:  taskKind,
		Provider:  provider,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
}

// SetFailureReason records why the request was rejected or degraded
func (u *UsageRecord) SetFailureReason(reason string) {
	if reason == "" {
		return
	}
	u.FailureReason = &reason
}
