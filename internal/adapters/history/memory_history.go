package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// MemoryHistory is an in-memory implementation of the History interface.
// It survives only for the lifetime of the process; restarts rely on the
// upstream seen flags for dedup.
type MemoryHistory struct {
	entries     map[string]*core.HistoryEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryHistory creates a new in-memory history store.
func NewMemoryHistory(logger *zap.Logger, cleanupFreq time.Duration) *MemoryHistory {
	h := &MemoryHistory{
		entries:     make(map[string]*core.HistoryEntry),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go h.startCleanupTask()

	return h
}

// Seen reports whether a notification was already sent for key.
func (h *MemoryHistory) Seen(_ context.Context, key string) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.ExpiresAt) {
		return false, nil
	}
	return true, nil
}

// Record stores a history entry for a delivered notification.
func (h *MemoryHistory) Record(_ context.Context, entry *core.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[entry.Key] = entry
	return nil
}

// Cleanup removes expired entries.
func (h *MemoryHistory) Cleanup(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for key, entry := range h.entries {
		if now.After(entry.ExpiresAt) {
			delete(h.entries, key)
			expiredCount++
		}
	}

	h.logger.Debug("Cleaned up expired history entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (h *MemoryHistory) startCleanupTask() {
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

// Stop stops the background cleanup task
func (h *MemoryHistory) Stop() {
	close(h.stopCh)
}
