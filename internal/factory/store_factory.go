package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/inbox-digest/internal/adapters/store"
	"github.com/mikey/inbox-digest/internal/config"
	"github.com/mikey/inbox-digest/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates user stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateUserStore opens the file-backed user store
func (f *StoreFactory) CreateUserStore() (core.UserStore, error) {
	usersPath := f.cfg.GetString("store.users_path")
	if err := os.MkdirAll(filepath.Dir(usersPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create user store directory: %w", err)
	}
	return store.NewFileStore(usersPath, f.logger)
}
