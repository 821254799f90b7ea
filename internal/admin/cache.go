package admin

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cache stores encoded dashboard payloads by key
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Stats(ctx context.Context) CacheStats
	Backend() string
	Close() error
}

// MemoryCache is an in-process TTL cache
type MemoryCache struct {
	data    map[string]*cacheEntry
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once

	statsMu sync.Mutex
	hits    int64
	misses  int64
}

type cacheEntry struct {
	value      []byte
	expiration time.Time
}

// NewMemoryCache creates a memory cache that sweeps expired entries every interval
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	cache := &MemoryCache{
		data:    make(map[string]*cacheEntry),
		cleanup: time.NewTicker(cleanupInterval),
		done:    make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	hit := ok && time.Now().Before(entry.expiration)

	c.statsMu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.statsMu.Unlock()

	if !hit {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a value in the cache
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// DeleteByPrefix removes all entries with keys starting with the given prefix
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats(_ context.Context) CacheStats {
	c.mu.RLock()
	size := len(c.data)
	c.mu.RUnlock()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return newCacheStats(BackendMemory, size, c.hits, c.misses)
}

// Backend names the cache implementation
func (c *MemoryCache) Backend() string {
	return BackendMemory
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	c.once.Do(func() {
		c.cleanup.Stop()
		close(c.done)
	})
	return nil
}

func (c *MemoryCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
}

func newCacheStats(backend string, size int, hits, misses int64) CacheStats {
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Backend: backend,
		Size:    size,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}
