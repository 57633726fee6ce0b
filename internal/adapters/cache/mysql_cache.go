package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/inbox-digest/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS summary_cache (
			cache_key VARCHAR(255) PRIMARY KEY,
			summary_bullets TEXT,
			action_items TEXT,
			urgency VARCHAR(8),
			used_mid_tier BOOLEAN,
			escalation_reason VARCHAR(32),
			cached_at TIMESTAMP,
			INDEX idx_cached_at (cached_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
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

	entry.CachedAt, err = time.Parse("2006-01-02 15:04:05", cachedAt)
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
func (c *MySQLCache) Put(ctx context.Context, key string, result *core.RoutingResult) error {
	bulletsJSON, err := json.Marshal(result.SummaryBullets)
	if err != nil {
		return fmt.Errorf("failed to encode summary bullets: %w", err)
	}
	itemsJSON, err := json.Marshal(result.ActionItems)
	if err != nil {
		return fmt.Errorf("failed to encode action items: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO summary_cache
			(cache_key, summary_bullets, action_items, urgency, used_mid_tier, escalation_reason, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			summary_bullets = VALUES(summary_bullets),
			action_items = VALUES(action_items),
			urgency = VALUES(urgency),
			used_mid_tier = VALUES(used_mid_tier),
			escalation_reason = VALUES(escalation_reason),
			cached_at = VALUES(cached_at)
	`, key, string(bulletsJSON), string(itemsJSON), string(result.Urgency),
		result.UsedMidTier, string(result.EscalationReason),
		time.Now().Format("2006-01-02 15:04:05"))

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// EvictExpired removes every entry older than the TTL
func (c *MySQLCache) EvictExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-c.ttl).Format("2006-01-02 15:04:05")

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
func (c *MySQLCache) startEvictionTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
