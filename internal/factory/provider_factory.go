package factory

import (
	"github.com/mikey/inbox-digest/internal/adapters/gmail"
	"github.com/mikey/inbox-digest/internal/adapters/outlook"
	"github.com/mikey/inbox-digest/internal/config"
	"github.com/mikey/inbox-digest/internal/core"
	"go.uber.org/zap"
)

// ProviderFactory creates mail provider adapters
type ProviderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config, logger *zap.Logger) *ProviderFactory {
	return &ProviderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailProviders builds the adapter for every supported provider
func (f *ProviderFactory) CreateMailProviders() map[core.Provider]core.MailProvider {
	gmailCfg := f.cfg.GetGmail()
	outlookCfg := f.cfg.GetOutlook()

	return map[core.Provider]core.MailProvider{
		core.ProviderGmail: gmail.NewGmailProvider(
			gmailCfg.ClientID,
			gmailCfg.ClientSecret,
			gmailCfg.PageSize,
			f.logger,
		),
		core.ProviderOutlook: outlook.NewOutlookProvider(
			outlookCfg.BaseURL,
			outlookCfg.PageSize,
			outlookCfg.ArchiveFolder,
			f.logger,
		),
	}
}
