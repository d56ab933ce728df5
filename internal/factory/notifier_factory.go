package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/adapters/webhook"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// NotifierFactory creates webhook notifiers based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a notifier based on the configured format
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	webhookCfg := f.cfg.GetWebhook()
	notifyCfg := f.cfg.GetNotify()

	switch webhookCfg.Format {
	case "discord":
		return webhook.NewDiscordNotifier(webhookCfg, notifyCfg, f.logger), nil
	case "generic":
		return webhook.NewGenericNotifier(webhookCfg, notifyCfg, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported webhook format: %s", webhookCfg.Format)
	}
}
