package router

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/codetrack/ai-gateway/services/fallback"
	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Candidate pairs a provider with its routing configuration.
// Ranks are distinct and total-ordered; lower ranks are tried first.
// Only providers whose credential is present are ever handed to the router:
// a missing credential excludes a provider entirely, it never merely
// deprioritizes it.
type Candidate struct {
	Provider   providers.Provider
	Rank       int
	Capability providers.Capability
	Timeout    time.Duration
}

// AttemptOutcome classifies a single provider attempt
type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeTimeout AttemptOutcome = "timeout"
	OutcomeError   AttemptOutcome = "error"
)

// Attempt records the outcome of one provider call. The router collects
// attempts into an explicit log so the fallback decision is a pure function
// over that log rather than implicit control flow.
type Attempt struct {
	Provider string         `json:"provider"`
	Outcome  AttemptOutcome `json:"outcome"`
	Reason   string         `json:"reason,omitempty"`
	Latency  time.Duration  `json:"latency"`
}

// Response is the single outcome of a router invocation. Every request yields
// exactly one Response: an upstream success, the local fallback, or a
// validation failure. Only validation failures carry Success=false.
type Response struct {
	ID            uuid.UUID     `json:"id"`
	Provider      string        `json:"provider"`
	Text          string        `json:"text"`
	Success       bool          `json:"success"`
	Latency       time.Duration `json:"latency"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Attempts      []Attempt     `json:"attempts,omitempty"`
}

// FromFallback reports whether the response came from the local fallback
// rather than an upstream AI provider
func (r *Response) FromFallback() bool {
	return r.Provider == fallback.Name
}

// ProviderStatus describes one configured candidate for status endpoints
type ProviderStatus struct {
	Name       string               `json:"name"`
	Rank       int                  `json:"rank"`
	Capability providers.Capability `json:"capability"`
}

// Service routes requests through an ordered provider chain with a local
// fallback. The candidate set is fixed at construction and read-only
// afterwards, so a single Service is safe for concurrent use.
type Service struct {
	candidates []Candidate
	catalog    *fallback.Catalog
	logger     *zap.Logger
}

// NewService creates a new router service. Candidates are sorted by rank
// ascending once, at construction.
func NewService(candidates []Candidate, catalog *fallback.Catalog, logger *zap.Logger) *Service {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank < sorted[j].Rank
	})

	return &Service{
		candidates: sorted,
		catalog:    catalog,
		logger:     logger,
	}
}

// Providers returns the configured candidates in rank order
func (s *Service) Providers() []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(s.candidates))
	for _, c := range s.candidates {
		statuses = append(statuses, ProviderStatus{
			Name:       c.Provider.Name(),
			Rank:       c.Rank,
			Capability: c.Capability,
		})
	}
	return statuses
}

// Route attempts delivery through the candidate chain and always returns
// exactly one Response. Candidates are tried strictly one at a time: the
// first success short-circuits the chain, so at most one provider call
// succeeds per request. Timeouts and provider errors advance to the next
// candidate with no retry against the same provider; when the chain is
// exhausted the deterministic local fallback is returned as a successful
// terminal outcome. Only an invalid request produces Success=false.
func (s *Service) Route(ctx context.Context, req *providers.Request) *Response {
	start := time.Now()
	id := uuid.New()

	if strings.TrimSpace(req.Prompt) == "" {
		s.logger.Warn("rejecting request with empty prompt",
			zap.String("request_id", id.String()),
			zap.String("kind", string(req.Kind)))
		return &Response{
			ID:            id,
			Success:       false,
			Latency:       time.Since(start),
			FailureReason: "prompt cannot be empty",
		}
	}

	kind := req.Kind
	if !kind.Valid() {
		kind = providers.TaskCompletion
	}

	ordered := orderCandidates(s.candidates, kind)
	attempts := make([]Attempt, 0, len(ordered))

	for _, candidate := range ordered {
		// Caller abandoned the request; stop the chain
		if ctx.Err() != nil {
			break
		}

		attempt, text := s.attempt(ctx, candidate, req)
		attempts = append(attempts, attempt)

		s.logger.Debug("provider attempt",
			zap.String("request_id", id.String()),
			zap.String("provider", attempt.Provider),
			zap.String("outcome", string(attempt.Outcome)),
			zap.String("reason", attempt.Reason),
			zap.Duration("latency", attempt.Latency))

		if attempt.Outcome == OutcomeSuccess {
			return &Response{
				ID:       id,
				Provider: attempt.Provider,
				Text:     text,
				Success:  true,
				Latency:  time.Since(start),
				Attempts: attempts,
			}
		}
	}

	// The fallback decision is a pure function over the attempt log
	if needFallback(attempts) {
		s.logger.Info("all providers exhausted, using local fallback",
			zap.String("request_id", id.String()),
			zap.String("kind", string(kind)),
			zap.Int("attempts", len(attempts)))

		return &Response{
			ID:       id,
			Provider: fallback.Name,
			Text:     s.catalog.Render(req),
			Success:  true,
			Latency:  time.Since(start),
			Attempts: attempts,
		}
	}

	// Unreachable: a successful attempt returns from the loop above.
	return &Response{
		ID:       id,
		Provider: fallback.Name,
		Text:     s.catalog.Render(req),
		Success:  true,
		Latency:  time.Since(start),
		Attempts: attempts,
	}
}

// attempt issues a single provider call bounded by the candidate's timeout
// and classifies the outcome. Provider failures are converted into attempt
// records, never propagated.
func (s *Service) attempt(ctx context.Context, candidate Candidate, req *providers.Request) (Attempt, string) {
	timeout := candidate.Timeout
	if timeout <= 0 {
		timeout = providers.HTTPTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := candidate.Provider.Complete(callCtx, req)
	latency := time.Since(start)

	name := candidate.Provider.Name()

	switch {
	case err == nil && strings.TrimSpace(text) != "":
		return Attempt{Provider: name, Outcome: OutcomeSuccess, Latency: latency}, text

	case err == nil:
		return Attempt{
			Provider: name,
			Outcome:  OutcomeError,
			Reason:   providers.CodeEmptyResponse,
			Latency:  latency,
		}, ""

	case errors.Is(err, context.DeadlineExceeded):
		return Attempt{
			Provider: name,
			Outcome:  OutcomeTimeout,
			Reason:   "timeout after " + timeout.String(),
			Latency:  latency,
		}, ""

	default:
		reason := err.Error()
		var provErr *providers.ProviderError
		if errors.As(err, &provErr) {
			reason = provErr.Code + ": " + provErr.Message
		}
		return Attempt{
			Provider: name,
			Outcome:  OutcomeError,
			Reason:   reason,
			Latency:  latency,
		}, ""
	}
}

// orderCandidates builds the attempt order for a task kind: rank ascending,
// with candidates whose capability matches the kind moved ahead of
// non-matching ones, stable otherwise. Capability reorders, never filters.
func orderCandidates(candidates []Candidate, kind providers.TaskKind) []Candidate {
	want := kind.Capability()

	ordered := make([]Candidate, 0, len(candidates))
	var rest []Candidate
	for _, c := range candidates {
		if c.Capability == want {
			ordered = append(ordered, c)
		} else {
			rest = append(rest, c)
		}
	}
	return append(ordered, rest...)
}

// needFallback reports whether the attempt log contains no success.
// An empty log (zero configured providers) also routes to the fallback.
func needFallback(attempts []Attempt) bool {
	for _, a := range attempts {
		if a.Outcome == OutcomeSuccess {
			return false
		}
	}
	return true
}
