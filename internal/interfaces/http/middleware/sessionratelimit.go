package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	"github.com/quickrollcall/rollcall/internal/infrastructure/ratelimit"
	"github.com/quickrollcall/rollcall/internal/shared/errors"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

const (
	// ClientIDHeader carries the browser's persistent identity.
	ClientIDHeader = "X-Client-ID"

	// ReasonRateLimited is reported in error.reason on 429 responses.
	ReasonRateLimited = "RATE_LIMITED"
)

// SessionRateLimiter throttles one client within one session. Clients are
// told apart by X-Client-ID, or by IP when the header is missing.
type SessionRateLimiter struct {
	limiter ratelimit.Limiter
	purpose string
	metrics *metrics.Metrics
	logger  logger.Interface
}

func NewSessionRateLimiter(limiter ratelimit.Limiter, purpose string, m *metrics.Metrics, logger logger.Interface) *SessionRateLimiter {
	return &SessionRateLimiter{
		limiter: limiter,
		purpose: purpose,
		metrics: m,
		logger:  logger,
	}
}

// Limit returns the gin middleware. A limiter failure lets the request
// through.
func (rl *SessionRateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		tail := rateLimitKeyTail(c)
		if tail == "" {
			c.Next()
			return
		}

		decision, err := rl.limiter.Allow(c.Request.Context(), tail)
		if err != nil {
			rl.metrics.RateLimitFailed(rl.purpose)
			rl.logger.Warnw("rate limit check failed, allowing request",
				"purpose", rl.purpose,
				"key", tail,
				"error", err,
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(decision.ResetSeconds))

		if !decision.Allowed {
			rl.metrics.RateLimited(rl.purpose)
			utils.ErrorResponseWithError(c,
				errors.NewRateLimitedError("Too many requests, please try again later").WithReason(ReasonRateLimited))
			c.Abort()
			return
		}

		c.Next()
	}
}

// rateLimitKeyTail returns "<sessionId>:<clientId>" or "<sessionId>:ip:<ip>",
// or "" when the request has nothing to key on.
func rateLimitKeyTail(c *gin.Context) string {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if sessionID == "" {
		return ""
	}
	if clientID := strings.TrimSpace(c.GetHeader(ClientIDHeader)); clientID != "" {
		return sessionID + ":" + clientID
	}
	if ip := c.ClientIP(); ip != "" {
		return sessionID + ":ip:" + ip
	}
	return ""
}
