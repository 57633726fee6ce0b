package core

import (
	"context"
	"time"
)

// MailProvider defines the capability set implemented per mail provider
type MailProvider interface {
	// FetchUnread returns the account's unread inbox messages, normalized
	// and with bulk/marketing mail already filtered out. A provider failure
	// returns an error; the caller treats it as a non-fatal empty result.
	FetchUnread(ctx context.Context, account *Account) ([]*Email, error)

	// Archive performs provider-idiomatic archival of a message. It returns
	// false on any failure and never panics past this boundary.
	Archive(ctx context.Context, account *Account, messageID string) bool
}

// ModelClient defines the interface for invoking the summarization model.
// Complete never fails: transport and parse errors are absorbed into the
// fixed fallback result inside the adapter.
type ModelClient interface {
	Complete(ctx context.Context, tier Tier, subject, body string) *RawModelResult
}

// CacheRepository defines the interface for the content-addressed summary cache
type CacheRepository interface {
	// Get retrieves the entry for a cache key. A miss is reported as
	// cache.ErrNotFound; any other error means the cache is unavailable.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Put inserts or overwrites the entry for a key, stamping cachedAt
	Put(ctx context.Context, key string, result *RoutingResult) error

	// EvictExpired removes every entry older than the cache TTL
	EvictExpired(ctx context.Context) error
}

// UserStore defines the interface for user and account lookup
type UserStore interface {
	GetUser(ctx context.Context, id string) (*User, error)

	// SetLastOpenAt records the completion time of a successful sync
	SetLastOpenAt(ctx context.Context, id string, t time.Time) error

	Close() error
}
