package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/codetrack/ai-gateway/services/ratelimit"
	"github.com/codetrack/ai-gateway/utils"
	"go.uber.org/zap"
)

// RateLimitMiddleware rejects requests over the configured per-client limits
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit enforces the rate limit, keyed by the authenticated subject when
// present and the client address otherwise.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scopeKey := clientScope(r)

		result := m.limiter.Allow(scopeKey)
		if !result.Allowed {
			m.logger.Warn("rate limit exceeded",
				zap.String("scope", scopeKey),
				zap.String("window", string(result.ViolatedWindow)),
				zap.String("request_id", GetRequestIDFromContext(r.Context())))

			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
			_ = utils.WriteJSON(w, http.StatusTooManyRequests, utils.ErrorResponse{
				Error:   "rate_limited",
				Message: result.ViolationReason,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientScope identifies the client for rate limiting purposes
func clientScope(r *http.Request) string {
	if claims := GetClaimsFromContext(r.Context()); claims != nil && claims.Subject != "" {
		return "sub:" + claims.Subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func retryAfterSeconds(result ratelimit.Result) int {
	// Retry-After is best effort; never advertise zero
	secs := int(time.Until(result.ResetAt).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
