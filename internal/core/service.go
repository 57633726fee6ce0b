package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrEntryNotFound is returned by cache repositories on a key miss. Any
// other cache error means the store is unavailable and fails the sync.
var ErrEntryNotFound = errors.New("cache entry not found")

// SyncService orchestrates the sync-and-summarize pipeline for a user
type SyncService struct {
	providers map[Provider]MailProvider
	cache     CacheRepository
	router    *SummarizationRouter
	users     UserStore
	logger    *zap.Logger
	sf        singleflight.Group
}

// NewSyncService creates a new sync service
func NewSyncService(
	providers map[Provider]MailProvider,
	cache CacheRepository,
	router *SummarizationRouter,
	users UserStore,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		providers: providers,
		cache:     cache,
		router:    router,
		users:     users,
		logger:    logger,
	}
}

// SyncOnOpen runs one sync for a user: fetch unread mail from every linked
// account, reuse cached summaries, summarize the rest, and aggregate the
// results in account order then per-account fetch order. One account or
// email failing never aborts the others; a cache failure aborts the sync to
// avoid uncontrolled re-summarization cost.
func (s *SyncService) SyncOnOpen(ctx context.Context, userID string) ([]*AggregatedEmail, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	runID := uuid.NewString()
	s.logger.Info("Starting sync",
		zap.String("run_id", runID),
		zap.String("user_id", userID),
		zap.Int("accounts", len(user.Accounts)))

	// Accounts fetch and summarize concurrently; results are slotted by
	// account index so the aggregate keeps account iteration order.
	perAccount := make([][]*AggregatedEmail, len(user.Accounts))
	g, gctx := errgroup.WithContext(ctx)

	for i := range user.Accounts {
		account := &user.Accounts[i]
		slot := &perAccount[i]

		g.Go(func() error {
			provider, ok := s.providers[account.Provider]
			if !ok {
				s.logger.Error("No adapter for provider",
					zap.String("run_id", runID),
					zap.String("provider", string(account.Provider)),
					zap.String("account", account.Email))
				return nil
			}

			emails, err := provider.FetchUnread(gctx, account)
			if err != nil {
				// Non-fatal: this account contributes nothing
				s.logger.Error("Failed to fetch unread mail",
					zap.String("run_id", runID),
					zap.String("account", account.Email),
					zap.Error(err))
				return nil
			}

			results := make([]*AggregatedEmail, 0, len(emails))
			for _, email := range emails {
				entry, err := s.summarize(gctx, email)
				if err != nil {
					return err
				}
				if entry == nil {
					continue
				}
				results = append(results, &AggregatedEmail{
					Provider:         email.Provider,
					MessageID:        email.MessageID,
					From:             email.From,
					Subject:          email.Subject,
					Date:             email.Date,
					Account:          email.AccountEmail,
					SummaryBullets:   entry.SummaryBullets,
					ActionItems:      entry.ActionItems,
					Urgency:          entry.Urgency,
					UsedMidTier:      entry.UsedMidTier,
					EscalationReason: entry.EscalationReason,
				})
			}
			*slot = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	aggregated := make([]*AggregatedEmail, 0)
	for _, results := range perAccount {
		aggregated = append(aggregated, results...)
	}

	if err := s.users.SetLastOpenAt(ctx, userID, time.Now()); err != nil {
		s.logger.Error("Failed to update last open time",
			zap.String("run_id", runID),
			zap.Error(err))
	}

	s.logger.Info("Sync complete",
		zap.String("run_id", runID),
		zap.String("user_id", userID),
		zap.Int("emails", len(aggregated)))

	return aggregated, nil
}

// summarize returns the routing result for one email, from cache when the
// (provider, messageId, fingerprint) key is already known. Concurrent
// misses on the same key share one model invocation.
func (s *SyncService) summarize(ctx context.Context, email *Email) (*RoutingResult, error) {
	key := CacheKey(email.Provider, email.MessageID, email.Body)

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		entry, err := s.cache.Get(ctx, key)
		if err == nil {
			s.logger.Debug("Cache hit", zap.String("key", key))
			return entry.ToRoutingResult(), nil
		}
		if !errors.Is(err, ErrEntryNotFound) {
			return nil, fmt.Errorf("summary cache unavailable: %w", err)
		}

		result := s.router.Summarize(ctx, email)
		if err := s.cache.Put(ctx, key, result); err != nil {
			return nil, fmt.Errorf("summary cache unavailable: %w", err)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RoutingResult), nil
}

// ArchiveEmail archives a message on whichever of the user's accounts for
// the given provider holds it. It returns false on any failure; the message
// stays visible and the caller decides how to surface that.
func (s *SyncService) ArchiveEmail(ctx context.Context, userID string, providerName Provider, messageID string) bool {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load user for archive", zap.Error(err))
		return false
	}

	provider, ok := s.providers[providerName]
	if !ok {
		s.logger.Error("No adapter for provider", zap.String("provider", string(providerName)))
		return false
	}

	for i := range user.Accounts {
		account := &user.Accounts[i]
		if account.Provider != providerName {
			continue
		}
		if provider.Archive(ctx, account, messageID) {
			return true
		}
	}

	s.logger.Warn("Archive failed",
		zap.String("user_id", userID),
		zap.String("provider", string(providerName)),
		zap.String("message_id", messageID))
	return false
}
