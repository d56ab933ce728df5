package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/factory"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/logging"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register loggers
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}
	if err := container.Provide(logging.InitVerboseLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}

	// Register mailbox client
	if err := container.Provide(func(f *factory.MailboxFactory) core.Mailbox {
		return f.CreateMailbox()
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register history store
	if err := container.Provide(func(f *factory.HistoryFactory) (core.History, error) {
		return f.CreateHistory()
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register watch service
	if err := container.Provide(func(
		mailbox core.Mailbox,
		notifier core.Notifier,
		history core.History,
		logger *zap.Logger,
		verbose *logging.VerboseLogger,
		textProc *utils.TextProcessor,
		cfg *config.Config,
	) *core.WatchService {
		return core.NewWatchService(mailbox, notifier, history, logger, verbose.Logger, textProc, core.WatchOptions{
			Criteria:       cfg.GetCriteria(),
			MailboxName:    cfg.GetIMAP().Mailbox,
			MarkSeen:       cfg.GetPoll().MarkSeen,
			HistoryEnabled: cfg.GetHistory().Enabled,
			HistoryTTL:     cfg.GetHistory().TTL,
			ExcerptMax:     cfg.GetNotify().ExcerptMaxBytes,
		})
	}); err != nil {
		return nil, err
	}

	return container, nil
}
