package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/inbox-digest/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface.
// It is the durable default: summaries survive process restarts.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS summary_cache (
			cache_key TEXT PRIMARY KEY,
			summary_bullets TEXT,
			action_items TEXT,
			urgency TEXT,
			used_mid_tier BOOLEAN,
			escalation_reason TEXT,
			cached_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on cached_at for faster eviction
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cached_at ON summary_cache(cached_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background eviction
	go cache.startEvictionTask()

	return cache, nil
}

// Get retrieves the entry for a cache key
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var bulletsJSON, itemsJSON, urgency, reason, cachedAt string
	var usedMidTier bool

	err := c.db.QueryRowContext(ctx, `
		SELECT summary_bullets, action_items, urgency, used_mid_tier, escalation_reason, cached_at
		FROM summary_cache
		WHERE cache_key = ?
	`, key).Scan(&bulletsJSON, &itemsJSON, &urgency, &usedMidTier, &reason, &cachedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry := &core.CacheEntry{
		Urgency:          core.Urgency(urgency),
		UsedMidTier:      usedMidTier,
		EscalationReason: core.EscalationReason(reason),
	}

	entry.CachedAt, err = time.Parse(time.RFC3339, cachedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached_at timestamp: %w", err)
	}
	if time.Since(entry.CachedAt) > c.ttl {
		return nil, ErrNotFound
	}

	if err := json.Unmarshal([]byte(bulletsJSON), &entry.SummaryBullets); err != nil {
		return nil, fmt.Errorf("failed to decode summary bullets: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &entry.ActionItems); err != nil {
		return nil, fmt.Errorf("failed to decode action items: %w", err)
	}

	return entry, nil
}

// Put inserts or overwrites the entry for a key, stamping cachedAt
func (c *SQLiteCache) Put(ctx context.Context, key string, result *core.RoutingResult) error {
	bulletsJSON, err := json.Marshal(result.SummaryBullets)
	if err != nil {
		return fmt.Errorf("failed to encode summary bullets: %w", err)
	}
	itemsJSON, err := json.Marshal(result.ActionItems)
	if err != nil {
		return fmt.Errorf("failed to encode action items: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO summary_cache
			(cache_key, summary_bullets, action_items, urgency, used_mid_tier, escalation_reason, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key, string(bulletsJSON), string(itemsJSON), string(result.Urgency),
		result.UsedMidTier, string(result.EscalationReason), time.Now().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// EvictExpired removes every entry older than the TTL
func (c *SQLiteCache) EvictExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-c.ttl).Format(time.RFC3339)

	result, err := c.db.ExecContext(ctx, `
		DELETE FROM summary_cache
		WHERE cached_at < ?
	`, cutoff)

	if err != nil {
		return fmt.Errorf("failed to evict expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during eviction", zap.Error(err))
	} else {
		c.logger.Debug("Evicted expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startEvictionTask runs the periodic eviction sweep
func (c *SQLiteCache) startEvictionTask() {
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

// Stop stops the background eviction task and closes the database connection
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
