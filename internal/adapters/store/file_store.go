package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mikey/inbox-digest/internal/core"
	"go.uber.org/zap"
)

// ErrUserNotFound is returned when a user id is unknown
var ErrUserNotFound = errors.New("user not found")

// FileStore is a file-backed implementation of the UserStore interface.
// Users and their linked accounts are loaded once at startup and written
// back on mutation. It replaces the module-level user maps of earlier
// iterations with an injected store that has a defined lifecycle.
type FileStore struct {
	path   string
	users  map[string]*core.User
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewFileStore opens (or initializes) the user store at path
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	store := &FileStore{
		path:   path,
		users:  make(map[string]*core.User),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read user store: %w", err)
		}
		// First run, empty store
		return store, nil
	}

	var users []*core.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to decode user store: %w", err)
	}
	for _, u := range users {
		store.users[u.ID] = u
	}

	logger.Info("Loaded user store",
		zap.String("path", path),
		zap.Int("users", len(users)))

	return store, nil
}

// GetUser returns a copy of the user record for an id
func (s *FileStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	clone := *user
	clone.Accounts = append([]core.Account(nil), user.Accounts...)
	return &clone, nil
}

// SetLastOpenAt records the completion time of a successful sync and
// persists the store
func (s *FileStore) SetLastOpenAt(ctx context.Context, id string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.LastOpenAt = t

	return s.persistLocked()
}

// persistLocked writes the store to disk; the caller holds the write lock
func (s *FileStore) persistLocked() error {
	users := make([]*core.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write user store: %w", err)
	}
	return nil
}

// Close flushes the store
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}
