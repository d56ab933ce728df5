package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// sqliteTimeFormat matches the text form produced by datetime('now') so
// stored timestamps compare correctly against it.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// SQLiteHistory is a SQLite implementation of the History interface. It
// persists notification history across restarts so a restart does not
// re-notify messages the upstream seen flag missed.
type SQLiteHistory struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteHistory creates a new SQLite history store.
func NewSQLiteHistory(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS notification_history (
			message_key TEXT PRIMARY KEY,
			subject TEXT,
			notified_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expires_at ON notification_history(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	h := &SQLiteHistory{
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
func (h *SQLiteHistory) Seen(ctx context.Context, key string) (bool, error) {
	var found string
	err := h.db.QueryRowContext(ctx, `
		SELECT message_key
		FROM notification_history
		WHERE message_key = ? AND expires_at > datetime('now')
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
func (h *SQLiteHistory) Record(ctx context.Context, entry *core.HistoryEntry) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO notification_history (message_key, subject, notified_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, entry.Key, entry.Subject, entry.NotifiedAt.UTC().Format(sqliteTimeFormat), entry.ExpiresAt.UTC().Format(sqliteTimeFormat))

	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (h *SQLiteHistory) Cleanup(ctx context.Context) error {
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM notification_history
		WHERE expires_at <= datetime('now')
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
func (h *SQLiteHistory) startCleanupTask() {
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
func (h *SQLiteHistory) Stop() {
	close(h.stopCh)
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
