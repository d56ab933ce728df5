package core

import (
	"strings"
)

// EmptyListPolicy controls how an empty sender or keyword list is
// interpreted: as matching nothing, or as placing no restriction.
type EmptyListPolicy string

const (
	// MatchNone makes an empty list match no message.
	MatchNone EmptyListPolicy = "none"
	// MatchAll makes an empty list place no restriction on the message.
	MatchAll EmptyListPolicy = "all"
)

// Criteria holds the configured matching rules. Matching is a documented
// policy, not an accident of string handling: sender and keyword checks
// are case-insensitive substring containment ("art" matches "important"),
// and recipient exclusion is a case-insensitive exact address check.
type Criteria struct {
	Senders           []string
	Keywords          []string
	ExcludeRecipients []string
	EmptySenders      EmptyListPolicy
	EmptyKeywords     EmptyListPolicy
}

// MatchMessage reports whether a message satisfies the criteria. It is
// pure: identical inputs always yield identical output, and no state is
// read or written. A message matches when its sender is covered by the
// sender list, at least one keyword occurs in the subject or body, and
// none of its recipients is excluded. Exclusion takes precedence over
// the other two conditions.
func MatchMessage(msg *Message, c Criteria) (MatchResult, bool) {
	if recipientExcluded(msg.To, c.ExcludeRecipients) {
		return MatchResult{}, false
	}

	sender, ok := matchSender(msg.From, c)
	if !ok {
		return MatchResult{}, false
	}

	keyword, ok := matchKeyword(msg.Subject, msg.Body, c)
	if !ok {
		return MatchResult{}, false
	}

	return MatchResult{MatchedSender: sender, MatchedKeyword: keyword}, true
}

// matchSender checks whether any configured sender entry (a full address
// or a domain fragment) is contained in the message's sender address.
func matchSender(from string, c Criteria) (string, bool) {
	if len(c.Senders) == 0 {
		return "", c.EmptySenders == MatchAll
	}

	lowerFrom := strings.ToLower(from)
	for _, entry := range c.Senders {
		trimmed := strings.ToLower(strings.TrimSpace(entry))
		if trimmed == "" {
			continue
		}
		if strings.Contains(lowerFrom, trimmed) {
			return entry, true
		}
	}
	return "", false
}

// matchKeyword checks whether any configured keyword occurs as a
// substring of the subject or body.
func matchKeyword(subject, body string, c Criteria) (string, bool) {
	if len(c.Keywords) == 0 {
		return "", c.EmptyKeywords == MatchAll
	}

	haystack := strings.ToLower(subject + "\n" + body)
	for _, keyword := range c.Keywords {
		trimmed := strings.ToLower(strings.TrimSpace(keyword))
		if trimmed == "" {
			continue
		}
		if strings.Contains(haystack, trimmed) {
			return keyword, true
		}
	}
	return "", false
}

// recipientExcluded checks whether any recipient address appears in the
// exclusion list.
func recipientExcluded(recipients, excluded []string) bool {
	if len(excluded) == 0 {
		return false
	}

	for _, recipient := range recipients {
		addr := strings.ToLower(strings.TrimSpace(recipient))
		for _, ex := range excluded {
			if addr == strings.ToLower(strings.TrimSpace(ex)) {
				return true
			}
		}
	}
	return false
}
