package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenBucketLimiter(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	limiter := NewTokenBucketLimiter(2, time.Second, 0, WithClock(clock.now))
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "u1"))
	assert.True(t, limiter.Allow(ctx, "u1"))
	assert.False(t, limiter.Allow(ctx, "u1"), "burst exhausted")
	assert.True(t, limiter.Allow(ctx, "u2"), "keys have separate buckets")

	clock.advance(1500 * time.Millisecond)
	assert.True(t, limiter.Allow(ctx, "u1"))
	assert.False(t, limiter.Allow(ctx, "u1"))

	clock.advance(500 * time.Millisecond)
	assert.True(t, limiter.Allow(ctx, "u1"), "partial refill periods carry over")

	clock.advance(time.Hour)
	assert.True(t, limiter.Allow(ctx, "u1"))
	assert.True(t, limiter.Allow(ctx, "u1"))
	assert.False(t, limiter.Allow(ctx, "u1"), "refill is capped at the burst size")
}

func TestTokenBucketLimiterReset(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Minute, 0)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "u1"))
	assert.False(t, limiter.Allow(ctx, "u1"))

	limiter.Reset("u1")
	assert.True(t, limiter.Allow(ctx, "u1"))
}

func TestTokenBucketLimiterSweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	limiter := NewTokenBucketLimiter(5, time.Hour, 0, WithClock(clock.now))
	ctx := context.Background()

	limiter.Allow(ctx, "u1")
	clock.advance(30 * time.Minute)
	limiter.Allow(ctx, "u2")

	clock.advance(45 * time.Minute)
	limiter.Sweep()
	assert.Equal(t, 1, limiter.size())

	limiter.Stop()
	limiter.Stop()
}

func TestTokenBucketLimiterSweepKeepsRecentlySeenKeys(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	limiter := NewTokenBucketLimiter(1, time.Hour, 0, WithClock(clock.now))
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "u1"))
	clock.advance(50 * time.Minute)
	assert.False(t, limiter.Allow(ctx, "u1"), "denied requests still count as activity")

	clock.advance(25 * time.Minute)
	limiter.Sweep()
	assert.Equal(t, 1, limiter.size())
}

func TestPerMinuteLimiter(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	limiter := NewPerMinuteLimiter(3, 0, WithClock(clock.now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "ip:10.0.0.1"))
	}
	assert.False(t, limiter.Allow(ctx, "ip:10.0.0.1"))

	clock.advance(20 * time.Second)
	assert.True(t, limiter.Allow(ctx, "ip:10.0.0.1"))
	assert.False(t, limiter.Allow(ctx, "ip:10.0.0.1"))
}
