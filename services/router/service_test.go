package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codetrack/ai-gateway/services/fallback"
	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProvider is a test implementation of the providers.Provider interface
type mockProvider struct {
	name  string
	text  string
	err   error
	delay time.Duration
	calls int
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Complete(ctx context.Context, req *providers.Request) (string, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func newTestService(candidates ...Candidate) *Service {
	return NewService(candidates, fallback.NewCatalog(), zap.NewNop())
}

func candidate(p providers.Provider, rank int, cap providers.Capability) Candidate {
	return Candidate{Provider: p, Rank: rank, Capability: cap, Timeout: time.Second}
}

func TestRouteEmptyPrompt(t *testing.T) {
	first := &mockProvider{name: "openai", text: "hello"}
	svc := newTestService(candidate(first, 1, providers.CapabilityGeneral))

	resp := svc.Route(context.Background(), &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "   ",
	})

	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "prompt cannot be empty", resp.FailureReason)
	assert.Empty(t, resp.Provider)
	assert.Empty(t, resp.Attempts)
	assert.Zero(t, first.calls, "no provider may be attempted on validation failure")
}

func TestRouteFirstSuccessShortCircuits(t *testing.T) {
	first := &mockProvider{name: "openai", text: "from openai"}
	second := &mockProvider{name: "deepseek", text: "from deepseek"}

	svc := newTestService(
		candidate(first, 1, providers.CapabilityGeneral),
		candidate(second, 2, providers.CapabilityGeneral),
	)

	resp := svc.Route(context.Background(), &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "explain goroutines",
	})

	require.True(t, resp.Success)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "from openai", resp.Text)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "remaining candidates must not be queried after a success")
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, OutcomeSuccess, resp.Attempts[0].Outcome)
}

func TestRouteFallthroughInPriorityOrder(t *testing.T) {
	first := &mockProvider{name: "openai", err: providers.NewProviderError("openai", providers.CodeQuotaExceeded, "quota exceeded", 429, nil)}
	second := &mockProvider{name: "gemini", err: providers.NewProviderError("gemini", providers.CodeAuthFailed, "invalid key", 401, nil)}
	third := &mockProvider{name: "huggingface", text: "third time lucky"}
	fourth := &mockProvider{name: "openrouter", text: "never reached"}

	svc := newTestService(
		candidate(first, 1, providers.CapabilityGeneral),
		candidate(second, 2, providers.CapabilityGeneral),
		candidate(third, 3, providers.CapabilityGeneral),
		candidate(fourth, 4, providers.CapabilityGeneral),
	)

	resp := svc.Route(context.Background(), &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "what is a b-tree",
	})

	require.True(t, resp.Success)
	assert.Equal(t, "huggingface", resp.Provider)

	// Providers 1..k failed, k+1 succeeded, and no others were attempted
	require.Len(t, resp.Attempts, 3)
	assert.Equal(t, "openai", resp.Attempts[0].Provider)
	assert.Equal(t, OutcomeError, resp.Attempts[0].Outcome)
	assert.Contains(t, resp.Attempts[0].Reason, providers.CodeQuotaExceeded)
	assert.Equal(t, "gemini", resp.Attempts[1].Provider)
	assert.Contains(t, resp.Attempts[1].Reason, providers.CodeAuthFailed)
	assert.Equal(t, "huggingface", resp.Attempts[2].Provider)
	assert.Zero(t, fourth.calls)
}

func TestRouteZeroProvidersUsesFallback(t *testing.T) {
	svc := newTestService()

	for _, kind := range []providers.TaskKind{
		providers.TaskFlashcards,
		providers.TaskTutorExplanation,
		providers.TaskStudyPlan,
		providers.TaskCompletion,
	} {
		resp := svc.Route(context.Background(), &providers.Request{Kind: kind, Prompt: "anything"})
		require.True(t, resp.Success, "fallback is a successful terminal outcome")
		assert.Equal(t, fallback.Name, resp.Provider)
		assert.True(t, resp.FromFallback())
		assert.NotEmpty(t, resp.Text)
		assert.Empty(t, resp.Attempts)
	}
}

func TestRouteFallbackIsDeterministic(t *testing.T) {
	failing := &mockProvider{name: "openai", err: providers.NewProviderError("openai", providers.CodeHTTPError, "boom", 500, nil)}
	svc := newTestService(candidate(failing, 1, providers.CapabilityGeneral))

	req := &providers.Request{Kind: providers.TaskStudyPlan, Prompt: "plan my month", Format: providers.FormatJSON}

	first := svc.Route(context.Background(), req)
	second := svc.Route(context.Background(), req)
	third := svc.Route(context.Background(), req)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, second.Text, third.Text)
	assert.True(t, first.FromFallback())
}

func TestRouteCapabilityPreference(t *testing.T) {
	// Spec scenario: DeepSeek has no credential so it is never a candidate;
	// Gemini (general, better rank) and OpenRouter (code, worse rank) are.
	// For flashcard generation the code-capable OpenRouter goes first.
	gemini := &mockProvider{name: "gemini", text: "gemini says hi"}
	openrouter := &mockProvider{name: "openrouter", delay: 200 * time.Millisecond, text: "too slow"}

	svc := NewService([]Candidate{
		{Provider: gemini, Rank: 3, Capability: providers.CapabilityGeneral, Timeout: time.Second},
		{Provider: openrouter, Rank: 4, Capability: providers.CapabilityCode, Timeout: 20 * time.Millisecond},
	}, fallback.NewCatalog(), zap.NewNop())

	resp := svc.Route(context.Background(), &providers.Request{
		Kind:   providers.TaskFlashcards,
		Prompt: "binary search",
	})

	// OpenRouter attempted first (capability match), timed out; Gemini succeeded
	require.True(t, resp.Success)
	assert.Equal(t, "gemini", resp.Provider)
	require.Len(t, resp.Attempts, 2)
	assert.Equal(t, "openrouter", resp.Attempts[0].Provider)
	assert.Equal(t, OutcomeTimeout, resp.Attempts[0].Outcome)
	assert.Equal(t, "gemini", resp.Attempts[1].Provider)
	assert.Equal(t, OutcomeSuccess, resp.Attempts[1].Outcome)
}

func TestRouteTimeoutAdvancesWithoutRetry(t *testing.T) {
	slow := &mockProvider{name: "openai", delay: 200 * time.Millisecond, text: "late"}
	fast := &mockProvider{name: "deepseek", text: "on time"}

	svc := NewService([]Candidate{
		{Provider: slow, Rank: 1, Capability: providers.CapabilityGeneral, Timeout: 20 * time.Millisecond},
		{Provider: fast, Rank: 2, Capability: providers.CapabilityGeneral, Timeout: time.Second},
	}, fallback.NewCatalog(), zap.NewNop())

	resp := svc.Route(context.Background(), &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "hello",
	})

	require.True(t, resp.Success)
	assert.Equal(t, "deepseek", resp.Provider)
	assert.Equal(t, 1, slow.calls, "a timed-out provider is never retried")
	require.Len(t, resp.Attempts, 2)
	assert.Equal(t, OutcomeTimeout, resp.Attempts[0].Outcome)
}

func TestRouteEmptyPayloadIsProviderError(t *testing.T) {
	empty := &mockProvider{name: "openai", text: "   "}
	svc := newTestService(candidate(empty, 1, providers.CapabilityGeneral))

	resp := svc.Route(context.Background(), &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "hello",
	})

	require.True(t, resp.Success)
	assert.True(t, resp.FromFallback())
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, OutcomeError, resp.Attempts[0].Outcome)
	assert.Equal(t, providers.CodeEmptyResponse, resp.Attempts[0].Reason)
}

func TestRouteHonorsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &mockProvider{name: "openai", text: "hello"}
	svc := newTestService(candidate(first, 1, providers.CapabilityGeneral))

	resp := svc.Route(ctx, &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "hello",
	})

	// The chain stops immediately but the caller still gets displayable text
	require.True(t, resp.Success)
	assert.True(t, resp.FromFallback())
	assert.Zero(t, first.calls)
}

func TestOrderCandidates(t *testing.T) {
	a := candidate(&mockProvider{name: "a"}, 1, providers.CapabilityGeneral)
	b := candidate(&mockProvider{name: "b"}, 2, providers.CapabilityCode)
	c := candidate(&mockProvider{name: "c"}, 3, providers.CapabilityGeneral)
	d := candidate(&mockProvider{name: "d"}, 4, providers.CapabilityCode)

	// NewService sorts by rank; orderCandidates then prefers matching capability
	svc := newTestService(d, b, a, c)

	names := func(cs []Candidate) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Provider.Name()
		}
		return out
	}

	flashcards := orderCandidates(svc.candidates, providers.TaskFlashcards)
	assert.Equal(t, []string{"b", "d", "a", "c"}, names(flashcards))

	tutoring := orderCandidates(svc.candidates, providers.TaskTutorExplanation)
	assert.Equal(t, []string{"a", "c", "b", "d"}, names(tutoring))
}

func TestNeedFallback(t *testing.T) {
	assert.True(t, needFallback(nil))
	assert.True(t, needFallback([]Attempt{
		{Provider: "a", Outcome: OutcomeError},
		{Provider: "b", Outcome: OutcomeTimeout},
	}))
	assert.False(t, needFallback([]Attempt{
		{Provider: "a", Outcome: OutcomeError},
		{Provider: "b", Outcome: OutcomeSuccess},
	}))
}

func TestProviderStatuses(t *testing.T) {
	svc := newTestService(
		candidate(&mockProvider{name: "gemini"}, 3, providers.CapabilityGeneral),
		candidate(&mockProvider{name: "openai"}, 1, providers.CapabilityGeneral),
	)

	statuses := svc.Providers()
	require.Len(t, statuses, 2)
	assert.Equal(t, "openai", statuses[0].Name)
	assert.Equal(t, 1, statuses[0].Rank)
	assert.Equal(t, "gemini", statuses[1].Name)
}

func TestRouteUnknownErrorStillAdvances(t *testing.T) {
	weird := &mockProvider{name: "openai", err: errors.New("connection reset")}
	ok := &mockProvider{name: "gemini", text: "fine"}

	svc := newTestService(
		candidate(weird, 1, providers.CapabilityGeneral),
		candidate(ok, 2, providers.CapabilityGeneral),
	)

	resp := svc.Route(context.Background(), &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "hello",
	})

	require.True(t, resp.Success)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, "connection reset", resp.Attempts[0].Reason)
}
