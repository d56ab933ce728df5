package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "hello", tp.TruncateText("hello", 100))
	})

	t.Run("zero max size disables truncation", func(t *testing.T) {
		long := strings.Repeat("a", 10000)
		assert.Equal(t, long, tp.TruncateText(long, 0))
	})

	t.Run("long text is cut with a marker", func(t *testing.T) {
		got := tp.TruncateText(strings.Repeat("a", 100), 10)
		assert.Equal(t, strings.Repeat("a", 10)+" [...]", got)
	})

	t.Run("never splits a multi-byte rune", func(t *testing.T) {
		// Each rune is 3 bytes; a 7-byte cut would split the third one.
		got := tp.TruncateText("日本語テキスト", 7)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "日本 [...]", got)
	})
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("valid text passes through", func(t *testing.T) {
		assert.Equal(t, "héllo", tp.SanitizeUTF8("héllo"))
	})

	t.Run("invalid bytes are dropped", func(t *testing.T) {
		got := tp.SanitizeUTF8("ok\xff\xfebad")
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "okbad", got)
	})
}
