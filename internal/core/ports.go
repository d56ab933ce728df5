package core

import (
	"context"
)

// Mailbox opens authenticated sessions to the mail store. A session is
// acquired at the start of each poll cycle and closed at the end of it,
// whether the cycle succeeds or fails.
type Mailbox interface {
	// Connect establishes an authenticated session and selects the
	// configured mailbox.
	Connect(ctx context.Context) (MailboxSession, error)
}

// MailboxSession is one open, authenticated IMAP session.
type MailboxSession interface {
	// ListUnseen returns the UIDs of messages not yet flagged seen.
	ListUnseen(ctx context.Context) ([]uint32, error)

	// Fetch retrieves headers and body text for a single message
	// without setting its seen flag.
	Fetch(ctx context.Context, uid uint32) (*Message, error)

	// MarkSeen flags a message as seen. Marking an already-seen
	// message is a no-op on the store side.
	MarkSeen(ctx context.Context, uid uint32) error

	// Close logs out and releases the session.
	Close() error
}

// Notifier delivers a matched message to the configured webhook.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// History tracks messages that have already been notified so duplicates
// are suppressed even when the upstream seen flag cannot be relied on.
type History interface {
	// Seen reports whether a notification was already sent for key.
	Seen(ctx context.Context, key string) (bool, error)

	// Record stores a history entry for a delivered notification.
	Record(ctx context.Context, entry *HistoryEntry) error

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}
