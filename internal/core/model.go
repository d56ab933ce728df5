package core

import (
	"fmt"
	"time"
)

// Message represents one mailbox entry fetched from the IMAP store.
// The UID is assigned by the store and is stable for the lifetime of the
// message within its mailbox; the service only ever holds transient
// read-only copies built per poll cycle.
type Message struct {
	UID       uint32
	MessageID string
	From      string
	To        []string
	Subject   string
	Body      string
	Date      time.Time
	Seen      bool
}

// MatchResult records which configured criteria triggered a match.
// It is created by the matcher and consumed immediately by the notifier.
type MatchResult struct {
	MatchedSender  string
	MatchedKeyword string
}

// Notification is the payload handed to a notifier for delivery.
type Notification struct {
	Message *Message
	Match   MatchResult
	Excerpt string
}

// HistoryEntry records a message that has already been notified so it is
// not reported again, independent of the upstream seen flag.
type HistoryEntry struct {
	Key        string
	Subject    string
	NotifiedAt time.Time
	ExpiresAt  time.Time
}

// HistoryKey derives the dedup key for a message: the Message-ID header
// when present, otherwise the UID qualified by the mailbox name.
func HistoryKey(msg *Message, mailbox string) string {
	if msg.MessageID != "" {
		return msg.MessageID
	}
	return fmt.Sprintf("uid:%s/%d", mailbox, msg.UID)
}
