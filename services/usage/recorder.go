package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codetrack/ai-gateway/models"
	"github.com/codetrack/ai-gateway/repositories"
	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/codetrack/ai-gateway/services/router"
	"go.uber.org/zap"
)

// Recorder accepts usage bookkeeping for routed requests.
// Recording is best-effort: it never blocks or fails the request path.
type Recorder interface {
	RecordResponse(req *providers.Request, resp *router.Response)
}

// Config holds configuration for the usage recorder
type Config struct {
	BufferSize  int // Size of the record buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// Service persists usage records asynchronously through a worker pool
type Service struct {
	repo        repositories.UsageRepository
	logger      *zap.Logger
	recordChan  chan *models.UsageRecord
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// NewService creates a new usage recorder service
func NewService(repo repositories.UsageRepository, logger *zap.Logger, config Config) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		recordChan:  make(chan *models.UsageRecord, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("usage recorder already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started usage recorder",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop drains pending records and stops the workers
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("usage recorder not started")
	}
	s.started = false
	s.logger.Info("stopping usage recorder", zap.Int("pending_records", len(s.recordChan)))
	// Closing under the lock keeps RecordResponse from sending on a closed channel
	close(s.recordChan)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("usage recorder stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("usage recorder stop timeout after %v", timeout)
	}
}

// RecordResponse builds a usage record from a routed request and enqueues it.
// Non-blocking; when the buffer is full the record is dropped with a warning.
func (s *Service) RecordResponse(req *providers.Request, resp *router.Response) {
	rec := buildRecord(req, resp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	select {
	case s.recordChan <- rec:
	default:
		s.logger.Warn("usage record buffer full, dropping record",
			zap.String("id", rec.ID.String()),
			zap.String("provider", rec.Provider))
	}
}

// worker persists records from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	for rec := range s.recordChan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Insert(ctx, rec); err != nil {
			s.logger.Error("failed to insert usage record",
				zap.Int("worker_id", id),
				zap.String("id", rec.ID.String()),
				zap.Error(err))
		}
		cancel()
	}
}

// buildRecord maps a routed request onto a usage record. The record shares
// the response ID so logs and bookkeeping correlate.
func buildRecord(req *providers.Request, resp *router.Response) *models.UsageRecord {
	outcome := models.UsageOutcomeCompleted
	switch {
	case !resp.Success:
		outcome = models.UsageOutcomeRejected
	case resp.FromFallback():
		outcome = models.UsageOutcomeFallback
	}

	rec := models.NewUsageRecord(string(req.Kind), resp.Provider, outcome)
	rec.ID = resp.ID
	rec.Attempts = len(resp.Attempts)
	rec.PromptChars = len(req.Prompt)
	rec.ResponseChars = len(resp.Text)
	rec.LatencyMs = int(resp.Latency.Milliseconds())
	rec.SetFailureReason(resp.FailureReason)

	return rec
}

// NopRecorder discards all records. Used when no database is configured.
type NopRecorder struct{}

// RecordResponse does nothing
func (NopRecorder) RecordResponse(req *providers.Request, resp *router.Response) {}
