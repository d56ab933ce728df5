package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseCriteria() Criteria {
	return Criteria{
		Senders:           []string{"example.com"},
		Keywords:          []string{"urgent"},
		ExcludeRecipients: []string{},
		EmptySenders:      MatchNone,
		EmptyKeywords:     MatchNone,
	}
}

func alertMessage() *Message {
	return &Message{
		UID:     42,
		From:    "alerts@example.com",
		To:      []string{"me@example.com"},
		Subject: "Urgent: project update",
		Body:    "Please review the latest status.",
	}
}

func TestMatchMessage(t *testing.T) {
	t.Run("sender domain and keyword in subject match", func(t *testing.T) {
		result, ok := MatchMessage(alertMessage(), baseCriteria())

		assert.True(t, ok)
		assert.Equal(t, "example.com", result.MatchedSender)
		assert.Equal(t, "urgent", result.MatchedKeyword)
	})

	t.Run("excluded recipient overrides sender and keyword match", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.ExcludeRecipients = []string{"exclude_this@example.com"}

		msg := alertMessage()
		msg.To = []string{"exclude_this@example.com"}

		_, ok := MatchMessage(msg, criteria)
		assert.False(t, ok)
	})

	t.Run("exclusion is case-insensitive", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.ExcludeRecipients = []string{"Exclude_This@Example.COM"}

		msg := alertMessage()
		msg.To = []string{"exclude_this@example.com"}

		_, ok := MatchMessage(msg, criteria)
		assert.False(t, ok)
	})

	t.Run("sender not in list never matches regardless of keywords", func(t *testing.T) {
		msg := alertMessage()
		msg.From = "noreply@other.org"

		_, ok := MatchMessage(msg, baseCriteria())
		assert.False(t, ok)
	})

	t.Run("full sender address entry matches", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.Senders = []string{"alerts@example.com"}

		result, ok := MatchMessage(alertMessage(), criteria)
		assert.True(t, ok)
		assert.Equal(t, "alerts@example.com", result.MatchedSender)
	})

	t.Run("keyword matching is case-insensitive substring", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.Keywords = []string{"ART"}

		msg := alertMessage()
		msg.Subject = "nothing here"
		msg.Body = "this is important"

		// "art" occurs inside "important"; substring, not word boundary
		result, ok := MatchMessage(msg, criteria)
		assert.True(t, ok)
		assert.Equal(t, "ART", result.MatchedKeyword)
	})

	t.Run("keyword in body matches when subject has none", func(t *testing.T) {
		msg := alertMessage()
		msg.Subject = "weekly report"
		msg.Body = "this one is urgent, act now"

		_, ok := MatchMessage(msg, baseCriteria())
		assert.True(t, ok)
	})

	t.Run("no keyword match returns false", func(t *testing.T) {
		msg := alertMessage()
		msg.Subject = "weekly report"
		msg.Body = "all quiet"

		_, ok := MatchMessage(msg, baseCriteria())
		assert.False(t, ok)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		msg := alertMessage()
		criteria := baseCriteria()

		first, okFirst := MatchMessage(msg, criteria)
		second, okSecond := MatchMessage(msg, criteria)

		assert.Equal(t, okFirst, okSecond)
		assert.Equal(t, first, second)
	})
}

func TestMatchMessageEmptyListPolicies(t *testing.T) {
	t.Run("empty sender list matches nothing by default", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.Senders = nil

		_, ok := MatchMessage(alertMessage(), criteria)
		assert.False(t, ok)
	})

	t.Run("empty sender list with match-all places no restriction", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.Senders = nil
		criteria.EmptySenders = MatchAll

		result, ok := MatchMessage(alertMessage(), criteria)
		assert.True(t, ok)
		assert.Empty(t, result.MatchedSender)
	})

	t.Run("empty keyword list matches nothing by default", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.Keywords = nil

		_, ok := MatchMessage(alertMessage(), criteria)
		assert.False(t, ok)
	})

	t.Run("empty keyword list with match-all places no restriction", func(t *testing.T) {
		criteria := baseCriteria()
		criteria.Keywords = nil
		criteria.EmptyKeywords = MatchAll

		result, ok := MatchMessage(alertMessage(), criteria)
		assert.True(t, ok)
		assert.Empty(t, result.MatchedKeyword)
	})

	t.Run("exclusion still applies under match-all policies", func(t *testing.T) {
		criteria := Criteria{
			EmptySenders:      MatchAll,
			EmptyKeywords:     MatchAll,
			ExcludeRecipients: []string{"me@example.com"},
		}

		_, ok := MatchMessage(alertMessage(), criteria)
		assert.False(t, ok)
	})
}

func TestHistoryKey(t *testing.T) {
	t.Run("prefers message id", func(t *testing.T) {
		msg := alertMessage()
		msg.MessageID = "<abc@mail.example.com>"

		assert.Equal(t, "<abc@mail.example.com>", HistoryKey(msg, "INBOX"))
	})

	t.Run("falls back to uid and mailbox", func(t *testing.T) {
		assert.Equal(t, "uid:INBOX/42", HistoryKey(alertMessage(), "INBOX"))
	})
}
