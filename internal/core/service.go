package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/utils"
)

// WatchService is the core polling service: it inspects the mailbox for
// unseen messages, evaluates them against the configured criteria, and
// forwards matches to the notifier.
type WatchService struct {
	mailbox        Mailbox
	notifier       Notifier
	history        History
	logger         *zap.Logger
	verbose        *zap.Logger
	textProc       *utils.TextProcessor
	criteria       Criteria
	mailboxName    string
	markSeen       bool
	historyEnabled bool
	historyTTL     time.Duration
	excerptMax     int
}

// WatchOptions carries the non-dependency settings for a WatchService.
type WatchOptions struct {
	Criteria       Criteria
	MailboxName    string
	MarkSeen       bool
	HistoryEnabled bool
	HistoryTTL     time.Duration
	ExcerptMax     int
}

// NewWatchService creates a new watch service.
func NewWatchService(
	mailbox Mailbox,
	notifier Notifier,
	history History,
	logger *zap.Logger,
	verbose *zap.Logger,
	textProc *utils.TextProcessor,
	opts WatchOptions,
) *WatchService {
	return &WatchService{
		mailbox:        mailbox,
		notifier:       notifier,
		history:        history,
		logger:         logger,
		verbose:        verbose,
		textProc:       textProc,
		criteria:       opts.Criteria,
		mailboxName:    opts.MailboxName,
		markSeen:       opts.MarkSeen,
		historyEnabled: opts.HistoryEnabled && history != nil,
		historyTTL:     opts.HistoryTTL,
		excerptMax:     opts.ExcerptMax,
	}
}

// Run executes poll cycles until the context is cancelled: one cycle
// immediately, then one per interval. Cycle failures are logged and the
// next cycle retries independently; the fixed interval already throttles
// retries, so no additional backoff is applied.
func (s *WatchService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting mailbox watch",
		zap.String("mailbox", s.mailboxName),
		zap.Duration("interval", interval))

	if err := s.RunCycle(ctx); err != nil {
		s.logger.Error("Poll cycle failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Mailbox watch stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.logger.Error("Poll cycle failed", zap.Error(err))
			}
		}
	}
}

// RunCycle performs one poll cycle: connect, list unseen messages,
// process each, and close the session. A connect or list failure ends
// the cycle early; per-message failures never abort the cycle.
func (s *WatchService) RunCycle(ctx context.Context) error {
	s.logger.Info("Connecting to IMAP server")

	session, err := s.mailbox.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.Warn("Failed to close IMAP session", zap.Error(closeErr))
		}
	}()

	uids, err := session.ListUnseen(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("Checking for new emails", zap.Int("unseen_count", len(uids)))

	notified := 0
	for _, uid := range uids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.processMessage(ctx, session, uid) {
			notified++
		}
	}

	s.logger.Info("Finished poll cycle",
		zap.Int("processed", len(uids)),
		zap.Int("notified", notified))
	return nil
}

// processMessage fetches, matches, and (when matched) notifies a single
// message. It returns true when a notification was delivered. A fetch
// failure leaves the message unseen so the next cycle retries it; any
// message that was successfully inspected is marked seen regardless of
// the match or delivery outcome.
func (s *WatchService) processMessage(ctx context.Context, session MailboxSession, uid uint32) bool {
	s.verbose.Debug("Fetching message", zap.Uint32("uid", uid))

	msg, err := session.Fetch(ctx, uid)
	if err != nil {
		s.logger.Error("Failed to fetch message, leaving unseen",
			zap.Uint32("uid", uid),
			zap.Error(err))
		return false
	}

	s.verbose.Debug("Checking message against criteria",
		zap.Uint32("uid", uid),
		zap.String("from", msg.From),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))

	result, ok := MatchMessage(msg, s.criteria)
	if !ok {
		s.verbose.Debug("Message did not match the search criteria", zap.Uint32("uid", uid))
		s.setSeen(ctx, session, uid)
		return false
	}

	key := HistoryKey(msg, s.mailboxName)
	if s.historyEnabled {
		seen, err := s.history.Seen(ctx, key)
		if err != nil {
			s.logger.Warn("History lookup failed", zap.String("key", key), zap.Error(err))
		} else if seen {
			s.logger.Info("Skipping already-notified message",
				zap.Uint32("uid", uid),
				zap.String("key", key))
			s.setSeen(ctx, session, uid)
			return false
		}
	}

	s.logger.Info("Relevant email found",
		zap.Uint32("uid", uid),
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject),
		zap.String("matched_keyword", result.MatchedKeyword))

	notification := &Notification{
		Message: msg,
		Match:   result,
		Excerpt: s.textProc.ProcessText(msg.Body, s.excerptMax),
	}

	delivered := true
	if err := s.notifier.Notify(ctx, notification); err != nil {
		// The message was inspected either way, so it is still marked
		// seen below; only the notification itself is lost.
		s.logger.Error("Failed to deliver notification",
			zap.Uint32("uid", uid),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		delivered = false
	}

	if delivered && s.historyEnabled {
		now := time.Now()
		entry := &HistoryEntry{
			Key:        key,
			Subject:    msg.Subject,
			NotifiedAt: now,
			ExpiresAt:  now.Add(s.historyTTL),
		}
		if err := s.history.Record(ctx, entry); err != nil {
			s.logger.Warn("Failed to record notification history",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	s.setSeen(ctx, session, uid)
	return delivered
}

// setSeen marks a message seen when mark-seen is enabled. Errors are
// logged only; the worst outcome is reprocessing the message next cycle.
func (s *WatchService) setSeen(ctx context.Context, session MailboxSession, uid uint32) {
	if !s.markSeen {
		return
	}
	if err := session.MarkSeen(ctx, uid); err != nil {
		s.logger.Warn("Failed to mark message seen", zap.Uint32("uid", uid), zap.Error(err))
	}
}
