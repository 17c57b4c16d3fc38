package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/codetrack/ai-gateway/models"
	"github.com/codetrack/ai-gateway/repositories"
	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/codetrack/ai-gateway/services/router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryRepo captures inserted records for assertions
type memoryRepo struct {
	mu      sync.Mutex
	records []*models.UsageRecord
	fail    error
}

func (m *memoryRepo) Insert(ctx context.Context, rec *models.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	return nil, nil
}

func (m *memoryRepo) List(ctx context.Context, limit, offset int) ([]*models.UsageRecord, error) {
	return nil, nil
}

func (m *memoryRepo) GetByProvider(ctx context.Context, provider string, limit, offset int) ([]*models.UsageRecord, error) {
	return nil, nil
}

func (m *memoryRepo) GetMetrics(ctx context.Context, start, end time.Time) (*repositories.UsageMetrics, error) {
	return nil, nil
}

func (m *memoryRepo) all() []*models.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.UsageRecord(nil), m.records...)
}

func TestRecordResponsePersistsRecord(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, zap.NewNop(), DefaultConfig())
	require.NoError(t, svc.Start())

	respID := uuid.New()
	svc.RecordResponse(
		&providers.Request{Kind: providers.TaskFlashcards, Prompt: "sorting algorithms"},
		&router.Response{
			ID:       respID,
			Provider: "deepseek",
			Text:     "a deck",
			Success:  true,
			Latency:  1200 * time.Millisecond,
			Attempts: []router.Attempt{
				{Provider: "openai", Outcome: router.OutcomeTimeout},
				{Provider: "deepseek", Outcome: router.OutcomeSuccess},
			},
		},
	)

	require.NoError(t, svc.Stop(time.Second))

	records := repo.all()
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, respID, rec.ID)
	assert.Equal(t, "flashcard-generation", rec.TaskKind)
	assert.Equal(t, "deepseek", rec.Provider)
	assert.Equal(t, models.UsageOutcomeCompleted, rec.Outcome)
	assert.Equal(t, 2, rec.Attempts)
	assert.Equal(t, len("sorting algorithms"), rec.PromptChars)
	assert.Equal(t, len("a deck"), rec.ResponseChars)
	assert.Equal(t, 1200, rec.LatencyMs)
	assert.Nil(t, rec.FailureReason)
}

func TestRecordResponseOutcomes(t *testing.T) {
	tests := []struct {
		name string
		resp *router.Response
		want models.UsageOutcome
	}{
		{
			name: "upstream success",
			resp: &router.Response{ID: uuid.New(), Provider: "openai", Success: true},
			want: models.UsageOutcomeCompleted,
		},
		{
			name: "local fallback",
			resp: &router.Response{ID: uuid.New(), Provider: "local-fallback", Success: true},
			want: models.UsageOutcomeFallback,
		},
		{
			name: "validation rejection",
			resp: &router.Response{ID: uuid.New(), Success: false, FailureReason: "prompt cannot be empty"},
			want: models.UsageOutcomeRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := buildRecord(&providers.Request{Kind: providers.TaskCompletion, Prompt: "x"}, tt.resp)
			assert.Equal(t, tt.want, rec.Outcome)
		})
	}
}

func TestRecordResponseBeforeStartIsIgnored(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, zap.NewNop(), DefaultConfig())

	svc.RecordResponse(
		&providers.Request{Kind: providers.TaskCompletion, Prompt: "x"},
		&router.Response{ID: uuid.New(), Provider: "openai", Success: true},
	)

	assert.Empty(t, repo.all())
}

func TestStopDrainsPendingRecords(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, zap.NewNop(), Config{BufferSize: 100, WorkerCount: 1})
	require.NoError(t, svc.Start())

	for i := 0; i < 20; i++ {
		svc.RecordResponse(
			&providers.Request{Kind: providers.TaskCompletion, Prompt: "x"},
			&router.Response{ID: uuid.New(), Provider: "openai", Success: true},
		)
	}

	require.NoError(t, svc.Stop(2*time.Second))
	assert.Len(t, repo.all(), 20)
}

func TestStartTwiceFails(t *testing.T) {
	svc := NewService(&memoryRepo{}, zap.NewNop(), DefaultConfig())
	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())
	require.NoError(t, svc.Stop(time.Second))
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}

	// Must be safe with any input
	r.RecordResponse(
		&providers.Request{Kind: providers.TaskCompletion, Prompt: "x"},
		&router.Response{ID: uuid.New(), Provider: "openai", Success: true},
	)
}
