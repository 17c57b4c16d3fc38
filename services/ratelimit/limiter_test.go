package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(config Config) (*Limiter, *time.Time) {
	l := NewLimiter(config, zap.NewNop())
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWithinLimit(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		res := l.Allow("client-a")
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
	}

	res := l.Allow("client-a")
	assert.False(t, res.Allowed)
	assert.Equal(t, WindowMinute, res.ViolatedWindow)
	assert.Equal(t, "exceeded 3 requests per minute", res.ViolationReason)
}

func TestAllowTracksRemaining(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerMinute: 5})

	res := l.Allow("client-a")
	require.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)

	res = l.Allow("client-a")
	assert.Equal(t, 3, res.Remaining)
}

func TestScopesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerMinute: 1})

	require.True(t, l.Allow("client-a").Allowed)
	assert.False(t, l.Allow("client-a").Allowed)

	// A different client is unaffected
	assert.True(t, l.Allow("client-b").Allowed)
}

func TestWindowSlides(t *testing.T) {
	l, now := newTestLimiter(Config{RequestsPerMinute: 2})

	require.True(t, l.Allow("client-a").Allowed)
	require.True(t, l.Allow("client-a").Allowed)
	require.False(t, l.Allow("client-a").Allowed)

	// 61 seconds later both events have left the window
	*now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("client-a").Allowed)
}

func TestHourWindow(t *testing.T) {
	l, now := newTestLimiter(Config{RequestsPerMinute: 10, RequestsPerHour: 3})

	// Spread requests so the minute window never trips
	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("client-a").Allowed)
		*now = now.Add(2 * time.Minute)
	}

	res := l.Allow("client-a")
	assert.False(t, res.Allowed)
	assert.Equal(t, WindowHour, res.ViolatedWindow)
}

func TestRejectedRequestNotCounted(t *testing.T) {
	l, now := newTestLimiter(Config{RequestsPerMinute: 2})

	require.True(t, l.Allow("client-a").Allowed)
	require.True(t, l.Allow("client-a").Allowed)

	// Hammering while blocked must not extend the block
	for i := 0; i < 10; i++ {
		assert.False(t, l.Allow("client-a").Allowed)
	}

	*now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("client-a").Allowed)
}

func TestSweepEvictsIdleScopes(t *testing.T) {
	l, now := newTestLimiter(Config{RequestsPerMinute: 5})

	for i := 0; i < 100; i++ {
		l.Allow(fmt.Sprintf("client-%d", i))
	}
	assert.Len(t, l.events, 100)

	*now = now.Add(10 * time.Minute)
	l.Allow("client-new")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.events, 1)
}

func TestResetAtIsFuture(t *testing.T) {
	l, now := newTestLimiter(Config{RequestsPerMinute: 1})

	require.True(t, l.Allow("client-a").Allowed)
	res := l.Allow("client-a")
	require.False(t, res.Allowed)
	assert.True(t, res.ResetAt.After(*now))
}
