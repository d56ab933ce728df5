package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// mysqlTimeFormat is the DATETIME layout MySQL stores and returns.
const mysqlTimeFormat = "2006-01-02 15:04:05"

// MySQLHistory is a MySQL implementation of the History interface for
// deployments that already run a MySQL instance.
type MySQLHistory struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLHistory creates a new MySQL history store.
func NewMySQLHistory(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLHistory, error) {
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
		CREATE TABLE IF NOT EXISTS notification_history (
			message_key VARCHAR(255) PRIMARY KEY,
			subject TEXT,
			notified_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	h := &MySQLHistory{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go h.startCleanupTask()

	return h, nil
}

// Seen reports whether a notification was already sent for key.
func (h *MySQLHistory) Seen(ctx context.Context, key string) (bool, error) {
	var found string
	err := h.db.QueryRowContext(ctx, `
		SELECT message_key
		FROM notification_history
		WHERE message_key = ? AND expires_at > NOW()
	`, key).Scan(&found)

	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query history: %w", err)
	}
	return true, nil
}

// Record stores a history entry for a delivered notification.
func (h *MySQLHistory) Record(ctx context.Context, entry *core.HistoryEntry) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO notification_history (message_key, subject, notified_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			subject = VALUES(subject),
			notified_at = VALUES(notified_at),
			expires_at = VALUES(expires_at)
	`, entry.Key, entry.Subject, entry.NotifiedAt.UTC().Format(mysqlTimeFormat), entry.ExpiresAt.UTC().Format(mysqlTimeFormat))

	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (h *MySQLHistory) Cleanup(ctx context.Context) error {
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM notification_history
		WHERE expires_at <= NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		h.logger.Debug("Cleaned up expired history entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (h *MySQLHistory) startCleanupTask() {
	ticker := time.NewTicker(h.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.Cleanup(context.Background()); err != nil {
				h.logger.Error("Failed to clean up history", zap.Error(err))
			}
		case <-h.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (h *MySQLHistory) Stop() {
	close(h.stopCh)
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
