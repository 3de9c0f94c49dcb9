// Package cache provides the in-memory result cache used by the comparison service.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// DefaultMaxEntries bounds the number of cached comparison results
const DefaultMaxEntries = 256

type cacheItem struct {
	Value      interface{}
	Expiration time.Time
	StoredAt   time.Time
}

// MemoryCache is a thread-safe, size-bounded in-memory cache with TTL support.
// Values are stored as-is; callers must not mutate what they put in or get out.
type MemoryCache struct {
	data       map[string]cacheItem
	maxEntries int
	mutex      sync.RWMutex
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemoryCache creates a cache holding at most maxEntries values and
// sweeping expired ones every cleanupInterval
func NewMemoryCache(maxEntries int, cleanupInterval time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	cache := &MemoryCache{
		data:       make(map[string]cacheItem),
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}

	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value with TTL, evicting the oldest entry when the cache is full
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxEntries {
		c.evictOldest(now)
	}

	c.data[key] = cacheItem{
		Value:      value,
		Expiration: now.Add(ttl),
		StoredAt:   now,
	}

	return nil
}

// evictOldest drops expired entries, or the least recently stored one if none expired.
// Callers must hold the write lock.
func (c *MemoryCache) evictOldest(now time.Time) {
	oldestKey := ""
	var oldest time.Time
	evicted := false

	for key, item := range c.data {
		if now.After(item.Expiration) {
			delete(c.data, key)
			evicted = true
			continue
		}
		if oldestKey == "" || item.StoredAt.Before(oldest) {
			oldestKey, oldest = key, item.StoredAt
		}
	}

	if !evicted && oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}
	return !time.Now().After(item.Expiration), nil
}

// Close stops the background sweeper
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, item := range c.data {
				if now.After(item.Expiration) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// Size returns the current number of items in the cache
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
