package factory

import (
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/adapters/mailbox"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// MailboxFactory creates mail store clients based on configuration
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailbox creates the IMAP mailbox client
func (f *MailboxFactory) CreateMailbox() core.Mailbox {
	return mailbox.NewIMAPMailbox(f.cfg.GetIMAP(), f.logger)
}
