package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrExpired   = errors.New("cache entry expired")
)

// DefaultCleanupInterval is how often expired entries are swept.
const DefaultCleanupInterval = 5 * time.Minute

// CacheEntry represents a cached value with expiration.
type CacheEntry struct {
	Value      interface{}
	Expiration time.Time
}

// InMemoryCache is an in-memory TTL cache implementing interfaces.Cache.
type InMemoryCache struct {
	entries map[string]*CacheEntry
	mu      sync.RWMutex
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// CacheOption configures an InMemoryCache.
type CacheOption func(*InMemoryCache)

// WithCacheClock replaces the time source used for expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *InMemoryCache) {
		c.now = now
	}
}

// NewInMemoryCache creates a new in-memory cache. Call Close to stop the
// background sweep.
func NewInMemoryCache(opts ...CacheOption) *InMemoryCache {
	cache := &InMemoryCache{
		entries: make(map[string]*CacheEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanup(DefaultCleanupInterval)

	return cache
}

// Get retrieves a value from the cache.
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, ErrCacheMiss
	}

	if c.now().After(entry.Expiration) {
		return nil, ErrExpired
	}

	return entry.Value, nil
}

// Set stores a value in the cache with a TTL.
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &CacheEntry{
		Value:      value,
		Expiration: c.now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache.
func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweep. It is safe to call more than once.
func (c *InMemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Sweep removes expired entries.
func (c *InMemoryCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.Expiration) {
			delete(c.entries, key)
		}
	}
}

func (c *InMemoryCache) cleanup(interval time.Duration) {
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
