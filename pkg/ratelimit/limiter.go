package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether a caller may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// TokenBucketLimiter keeps one token bucket per key
type TokenBucketLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Option configures a TokenBucketLimiter
type Option func(*TokenBucketLimiter)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(l *TokenBucketLimiter) {
		l.now = now
	}
}

// NewTokenBucketLimiter creates a limiter that allows bursts of maxTokens and
// refills one token per refillRate. Keys unseen for longer than an hour are
// swept every cleanupInterval; a non-positive interval disables sweeping.
func NewTokenBucketLimiter(maxTokens int, refillRate, cleanupInterval time.Duration, opts ...Option) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		limiters: make(map[string]*entry),
		rate:     rate.Every(refillRate),
		burst:    maxTokens,
		idleTTL:  time.Hour,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if cleanupInterval > 0 {
		go l.cleanup(cleanupInterval)
	}
	return l
}

// NewPerMinuteLimiter allows n requests per minute per key with bursts of n
func NewPerMinuteLimiter(n int, cleanupInterval time.Duration, opts ...Option) *TokenBucketLimiter {
	return NewTokenBucketLimiter(n, time.Minute/time.Duration(n), cleanupInterval, opts...)
}

// Allow takes a token from the key's bucket
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) bool {
	now := l.now()

	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Reset forgets the key's bucket
func (l *TokenBucketLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.limiters, key)
}

// Sweep drops keys not seen for the idle TTL
func (l *TokenBucketLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.limiters, key)
		}
	}
}

// Stop ends the cleanup goroutine
func (l *TokenBucketLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *TokenBucketLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *TokenBucketLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
