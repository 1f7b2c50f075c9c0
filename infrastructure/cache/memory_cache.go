package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryCache is a process-local key/value cache with per-entry expiry
type InMemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// Option configures an InMemoryCache
type Option func(*InMemoryCache)

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *InMemoryCache) {
		c.now = now
	}
}

// NewInMemoryCache creates a new in-memory cache. Expired entries are swept
// every cleanupInterval until Stop is called; a non-positive interval
// disables the sweeper.
func NewInMemoryCache(cleanupInterval time.Duration, opts ...Option) *InMemoryCache {
	c := &InMemoryCache{
		items: make(map[string]cacheItem),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cleanupInterval > 0 {
		go c.cleanupExpired(cleanupInterval)
	}

	return c
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || !c.now().Before(item.expiresAt) {
		return nil, false
	}

	return item.value, true
}

// Set stores a value for ttl
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, expired ones included
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (c *InMemoryCache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Sweep removes every expired entry
func (c *InMemoryCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

func (c *InMemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}
