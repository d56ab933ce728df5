package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/adapters/history"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// HistoryFactory creates notification history stores based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistory creates a history store based on the configuration.
// When history is disabled it returns nil and the service skips dedup.
func (f *HistoryFactory) CreateHistory() (core.History, error) {
	historyCfg := f.cfg.GetHistory()
	if !historyCfg.Enabled {
		return nil, nil
	}

	switch historyCfg.Type {
	case "memory":
		return history.NewMemoryHistory(f.logger, historyCfg.CleanupFrequency), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(historyCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteHistory(historyCfg.SQLitePath, f.logger, historyCfg.CleanupFrequency)
	case "mysql":
		return history.NewMySQLHistory(historyCfg.MySQLDSN, f.logger, historyCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyCfg.Type)
	}
}
