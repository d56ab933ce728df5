package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

func entry(key string, ttl time.Duration) *core.HistoryEntry {
	now := time.Now()
	return &core.HistoryEntry{
		Key:        key,
		Subject:    "Urgent: project update",
		NotifiedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("recorded key is seen", func(t *testing.T) {
		h := NewMemoryHistory(zap.NewNop(), time.Hour)
		defer h.Stop()

		seen, err := h.Seen(ctx, "<abc@mail.example.com>")
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, h.Record(ctx, entry("<abc@mail.example.com>", time.Hour)))

		seen, err = h.Seen(ctx, "<abc@mail.example.com>")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("expired entry is not seen", func(t *testing.T) {
		h := NewMemoryHistory(zap.NewNop(), time.Hour)
		defer h.Stop()

		require.NoError(t, h.Record(ctx, entry("<old@mail.example.com>", -time.Minute)))

		seen, err := h.Seen(ctx, "<old@mail.example.com>")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("cleanup removes expired entries only", func(t *testing.T) {
		h := NewMemoryHistory(zap.NewNop(), time.Hour)
		defer h.Stop()

		require.NoError(t, h.Record(ctx, entry("<old@mail.example.com>", -time.Minute)))
		require.NoError(t, h.Record(ctx, entry("<fresh@mail.example.com>", time.Hour)))

		require.NoError(t, h.Cleanup(ctx))

		h.mu.RLock()
		defer h.mu.RUnlock()
		assert.NotContains(t, h.entries, "<old@mail.example.com>")
		assert.Contains(t, h.entries, "<fresh@mail.example.com>")
	})

	t.Run("recording the same key twice keeps the latest entry", func(t *testing.T) {
		h := NewMemoryHistory(zap.NewNop(), time.Hour)
		defer h.Stop()

		require.NoError(t, h.Record(ctx, entry("<dup@mail.example.com>", time.Minute)))
		require.NoError(t, h.Record(ctx, entry("<dup@mail.example.com>", time.Hour)))

		seen, err := h.Seen(ctx, "<dup@mail.example.com>")
		require.NoError(t, err)
		assert.True(t, seen)
	})
}
