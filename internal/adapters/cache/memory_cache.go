package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/inbox-digest/internal/core"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a cache entry is not found
var ErrNotFound = core.ErrEntryNotFound

// MemoryCache is an in-memory implementation of the CacheRepository interface.
// It does not survive restarts; the sqlite and mysql backends do.
type MemoryCache struct {
	entries     map[string]*core.CacheEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger *zap.Logger, ttl, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]*core.CacheEntry),
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background eviction
	go cache.startEvictionTask()

	return cache
}

// Get retrieves the entry for a cache key. An expired entry that the sweep
// has not removed yet is reported as a miss.
func (c *MemoryCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Since(entry.CachedAt) > c.ttl {
		return nil, ErrNotFound
	}

	return entry, nil
}

// Put inserts or overwrites the entry for a key, stamping cachedAt
func (c *MemoryCache) Put(ctx context.Context, key string, result *core.RoutingResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = result.ToCacheEntry(time.Now())
	return nil
}

// EvictExpired removes every entry older than the TTL
func (c *MemoryCache) EvictExpired(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, entry := range c.entries {
		if now.Sub(entry.CachedAt) > c.ttl {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Evicted expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startEvictionTask runs the periodic eviction sweep
func (c *MemoryCache) startEvictionTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.EvictExpired(context.Background()); err != nil {
				c.logger.Error("Failed to evict expired entries", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background eviction task
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
