package cache

import (
	"context"
	"sync"
	"time"

	"github.com/CreativeUnicorns/extprefs"
)

const defaultGCInterval = time.Minute

// item represents a single cache item with a value and an expiration time.
type item struct {
	value      []byte
	expiration time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.expiration.IsZero() && now.After(it.expiration)
}

// MemoryCache implements the Cache interface using an in-memory store.
type MemoryCache struct {
	mu     sync.RWMutex
	items  map[string]item
	stop   chan struct{} // signals the gc goroutine to stop
	closed bool
}

// NewMemoryCache initializes a new MemoryCache instance.
// It starts a garbage collection goroutine that drops expired items every minute.
func NewMemoryCache() *MemoryCache {
	return newMemoryCache(defaultGCInterval)
}

func newMemoryCache(gcInterval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]item),
		stop:  make(chan struct{}),
	}
	go cache.gc(gcInterval)
	return cache
}

// Get retrieves a value by key. Missing and expired keys return extprefs.ErrCacheMiss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, extprefs.ErrCacheUnavailable
	}

	it, exists := c.items[key]
	if !exists || it.expired(time.Now()) {
		return nil, extprefs.ErrCacheMiss
	}

	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores a value with an optional TTL.
// If TTL is greater than zero, the key will expire after the duration.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return extprefs.ErrCacheUnavailable
	}

	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	c.items[key] = item{
		value:      stored,
		expiration: expiration,
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return extprefs.ErrCacheUnavailable
	}

	delete(c.items, key)
	return nil
}

// Len returns the number of stored items, including expired ones not yet collected.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the gc goroutine and clears all items. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.stop)

	c.items = make(map[string]item)
	return nil
}

// gc periodically removes expired items.
func (c *MemoryCache) gc(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
		}
	}
}
