package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
	"github.com/quickrollcall/rollcall/internal/shared/config"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

const (
	PurposeSubmit = "submit"
	PurposeMint   = "mint"

	// expiryBuffer keeps a key alive slightly past its window.
	expiryBuffer = 5 * time.Second
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed      bool
	Limit        int
	Remaining    int
	ResetSeconds int
}

// Limiter decides whether one more request for key fits the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// SlidingWindowLimiter keeps a sorted set of request timestamps per key.
//
// The trim, add, count and expire steps are separate Redis commands, so
// concurrent requests on one key can briefly over- or undercount. The limiter
// throttles clients; it is not a security boundary.
type SlidingWindowLimiter struct {
	store   *cache.Store
	logger  logger.Interface
	prefix  string
	window  time.Duration
	max     int
	now     func() time.Time
	counter atomic.Uint64
}

type Option func(*SlidingWindowLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *SlidingWindowLimiter) {
		l.now = now
	}
}

// NewSlidingWindowLimiter builds a limiter whose keys live under rl:<purpose>.
// Window and max are floored to one second and one request.
func NewSlidingWindowLimiter(store *cache.Store, purpose string, cfg config.LimitConfig, log logger.Interface, opts ...Option) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		store:  store,
		logger: log,
		prefix: "rl:" + purpose,
		window: max(cfg.Window(), time.Second),
		max:    max(cfg.Max, 1),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *SlidingWindowLimiter) Limit() int {
	return l.max
}

func (l *SlidingWindowLimiter) Window() time.Duration {
	return l.window
}

// Key returns the Redis key used for the request key tail.
func (l *SlidingWindowLimiter) Key(tail string) string {
	return l.prefix + ":" + tail + ":z"
}

// Allow records the request and reports whether it is within the limit.
// On error the request has not been judged; callers decide whether to let it
// through.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, tail string) (Decision, error) {
	key := l.Key(tail)
	now := l.now().UnixMilli()
	windowMs := l.window.Milliseconds()

	if err := l.store.ZRemRangeByScore(ctx, key, 0, now-windowMs); err != nil {
		return Decision{}, fmt.Errorf("failed to trim rate limit window: %w", err)
	}
	if err := l.store.ZAdd(ctx, key, now, l.member(now)); err != nil {
		return Decision{}, fmt.Errorf("failed to record request: %w", err)
	}
	count, err := l.store.ZCard(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count requests: %w", err)
	}
	if _, err := l.store.Expire(ctx, key, l.window+expiryBuffer); err != nil {
		return Decision{}, fmt.Errorf("failed to refresh rate limit expiry: %w", err)
	}

	return Decision{
		Allowed:      count <= int64(l.max),
		Limit:        l.max,
		Remaining:    max(0, l.max-int(count)),
		ResetSeconds: l.resetSeconds(ctx, key, now, windowMs),
	}, nil
}

// resetSeconds is the time until the oldest surviving entry leaves the window.
func (l *SlidingWindowLimiter) resetSeconds(ctx context.Context, key string, now, windowMs int64) int {
	fallback := int(windowMs / 1000)

	oldest, ok, err := l.store.ZOldestScore(ctx, key)
	if err != nil {
		l.logger.Debugw("rate limit reset calculation failed", "key", key, "error", err)
		return fallback
	}
	if !ok {
		return fallback
	}

	remainingMs := oldest + windowMs - now
	if remainingMs <= 0 {
		return 0
	}
	return int((remainingMs + 999) / 1000)
}

// member makes entries recorded in the same millisecond distinct.
func (l *SlidingWindowLimiter) member(now int64) string {
	return strconv.FormatInt(now, 10) + "-" + strconv.FormatUint(l.counter.Add(1), 10)
}
