package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
	"github.com/quickrollcall/rollcall/internal/shared/config"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupLimiter(t *testing.T, cfg config.LimitConfig) (*miniredis.Miniredis, *SlidingWindowLimiter, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	conn := cache.NewConnector(config.RedisConfig{URL: "redis://" + mr.Addr()}, logger.NewNopLogger())
	t.Cleanup(func() { _ = conn.Close() })

	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := cache.NewStore(conn, logger.NewNopLogger())
	limiter := NewSlidingWindowLimiter(store, PurposeSubmit, cfg, logger.NewNopLogger(), WithClock(clock.Now))
	return mr, limiter, clock
}

func TestSlidingWindow_RejectsOverLimitAndRecovers(t *testing.T) {
	_, limiter, clock := setupLimiter(t, config.LimitConfig{WindowSeconds: 60, Max: 6})
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		d, err := limiter.Allow(ctx, "s-1:device-a")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 6-(i+1), d.Remaining)
		clock.Advance(time.Second)
	}

	d, err := limiter.Allow(ctx, "s-1:device-a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 6, d.Limit)
	// Oldest entry was recorded 6s ago.
	assert.Equal(t, 54, d.ResetSeconds)

	clock.Advance(61 * time.Second)
	d, err = limiter.Allow(ctx, "s-1:device-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 5, d.Remaining)
}

func TestSlidingWindow_KeysAreIndependent(t *testing.T) {
	_, limiter, _ := setupLimiter(t, config.LimitConfig{WindowSeconds: 60, Max: 1})
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "s-1:device-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "s-1:device-b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "s-2:device-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "s-1:device-a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestSlidingWindow_SameMillisecondCountsTwice(t *testing.T) {
	_, limiter, _ := setupLimiter(t, config.LimitConfig{WindowSeconds: 60, Max: 1})
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	d, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestSlidingWindow_KeyLayoutAndExpiry(t *testing.T) {
	mr, limiter, _ := setupLimiter(t, config.LimitConfig{WindowSeconds: 30, Max: 3})

	_, err := limiter.Allow(context.Background(), "s-1:ip:10.0.0.1")
	require.NoError(t, err)

	key := "rl:submit:s-1:ip:10.0.0.1:z"
	assert.Equal(t, key, limiter.Key("s-1:ip:10.0.0.1"))
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 35*time.Second, mr.TTL(key))
}

func TestSlidingWindow_FloorsConfig(t *testing.T) {
	_, limiter, _ := setupLimiter(t, config.LimitConfig{WindowSeconds: 0, Max: -2})

	assert.Equal(t, time.Second, limiter.Window())
	assert.Equal(t, 1, limiter.Limit())
}

func TestSlidingWindow_StoreFailure(t *testing.T) {
	mr, limiter, _ := setupLimiter(t, config.LimitConfig{WindowSeconds: 60, Max: 6})
	mr.Close()

	_, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}
