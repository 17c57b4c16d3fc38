package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Window represents the time window for rate limiting
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
)

// Config holds the per-client limits. A zero limit disables that window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

// Result represents the outcome of a rate limit check
type Result struct {
	Allowed         bool
	Remaining       int
	ResetAt         time.Time
	ViolatedWindow  Window
	ViolationReason string
}

// Limiter enforces per-client sliding window rate limits in memory.
// Scope keys are caller-defined; the middleware layer keys by client identity.
type Limiter struct {
	mu        sync.Mutex
	config    Config
	events    map[string][]time.Time
	lastSweep time.Time
	logger    *zap.Logger

	// now is swappable for tests
	now func() time.Time
}

// sweepInterval bounds how often expired events are evicted across all scopes
const sweepInterval = 5 * time.Minute

// NewLimiter creates a new in-memory Limiter
func NewLimiter(config Config, logger *zap.Logger) *Limiter {
	return &Limiter{
		config: config,
		events: make(map[string][]time.Time),
		logger: logger,
		now:    time.Now,
	}
}

// Allow checks the scope against every configured window and, when allowed,
// records the request. Check and record are one atomic step.
func (l *Limiter) Allow(scopeKey string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)

	timestamps := l.events[scopeKey]

	if l.config.RequestsPerMinute > 0 {
		if res, ok := l.checkWindow(timestamps, now, WindowMinute, l.config.RequestsPerMinute); !ok {
			return res
		}
	}

	if l.config.RequestsPerHour > 0 {
		if res, ok := l.checkWindow(timestamps, now, WindowHour, l.config.RequestsPerHour); !ok {
			return res
		}
	}

	l.events[scopeKey] = append(timestamps, now)

	return Result{
		Allowed:   true,
		Remaining: l.remaining(l.events[scopeKey], now),
		ResetAt:   now.Truncate(time.Minute).Add(time.Minute),
	}
}

// checkWindow counts events inside one sliding window against its limit
func (l *Limiter) checkWindow(timestamps []time.Time, now time.Time, window Window, limit int) (Result, bool) {
	start, resetAt := windowBounds(now, window)

	count := 0
	for _, ts := range timestamps {
		if !ts.Before(start) {
			count++
		}
	}

	if count >= limit {
		return Result{
			Allowed:         false,
			Remaining:       0,
			ResetAt:         resetAt,
			ViolatedWindow:  window,
			ViolationReason: fmt.Sprintf("exceeded %d requests per %s", limit, window),
		}, false
	}

	return Result{}, true
}

// remaining reports how many requests are left in the tightest configured window
func (l *Limiter) remaining(timestamps []time.Time, now time.Time) int {
	if l.config.RequestsPerMinute > 0 {
		start, _ := windowBounds(now, WindowMinute)
		count := 0
		for _, ts := range timestamps {
			if !ts.Before(start) {
				count++
			}
		}
		return l.config.RequestsPerMinute - count
	}

	start, _ := windowBounds(now, WindowHour)
	count := 0
	for _, ts := range timestamps {
		if !ts.Before(start) {
			count++
		}
	}
	return l.config.RequestsPerHour - count
}

// maybeSweep evicts events older than the widest window to bound memory.
// Runs at most once per sweepInterval; caller holds the lock.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now

	horizon := now.Add(-time.Minute)
	if l.config.RequestsPerHour > 0 {
		horizon = now.Add(-time.Hour)
	}

	evicted := 0
	for key, timestamps := range l.events {
		kept := timestamps[:0]
		for _, ts := range timestamps {
			if !ts.Before(horizon) {
				kept = append(kept, ts)
			}
		}
		evicted += len(timestamps) - len(kept)
		if len(kept) == 0 {
			delete(l.events, key)
		} else {
			l.events[key] = kept
		}
	}

	if evicted > 0 {
		l.logger.Debug("swept expired rate limit events", zap.Int("evicted", evicted))
	}
}

// windowBounds returns the sliding window start and the reset time
func windowBounds(now time.Time, window Window) (start time.Time, reset time.Time) {
	switch window {
	case WindowMinute:
		start = now.Add(-1 * time.Minute)
		reset = now.Truncate(time.Minute).Add(time.Minute)
	case WindowHour:
		start = now.Add(-1 * time.Hour)
		reset = now.Truncate(time.Hour).Add(time.Hour)
	}
	return start, reset
}
