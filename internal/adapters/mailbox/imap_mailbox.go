package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// IMAPMailbox opens authenticated IMAP sessions using go-imap v2. One
// session is opened per poll cycle and closed when the cycle ends.
type IMAPMailbox struct {
	cfg    config.IMAPConfig
	logger *zap.Logger
}

// NewIMAPMailbox creates a new IMAP mailbox client.
func NewIMAPMailbox(cfg config.IMAPConfig, logger *zap.Logger) *IMAPMailbox {
	return &IMAPMailbox{
		cfg:    cfg,
		logger: logger,
	}
}

// Connect dials the server, authenticates, and selects the configured
// mailbox. The returned session must be closed by the caller.
func (m *IMAPMailbox) Connect(_ context.Context) (core.MailboxSession, error) {
	addr := fmt.Sprintf("%s:%d", m.cfg.Server, m.cfg.Port)

	var client *imapclient.Client
	var err error

	if m.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, &core.ConnectionError{Server: addr, Err: err}
	}

	if err := client.Login(m.cfg.Username, m.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &core.ConnectionError{Server: addr, Err: fmt.Errorf("authentication failed for %s: %w", m.cfg.Username, err)}
	}

	if _, err := client.Select(m.cfg.Mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &core.ConnectionError{Server: addr, Err: fmt.Errorf("selecting %s: %w", m.cfg.Mailbox, err)}
	}

	m.logger.Debug("IMAP session established",
		zap.String("server", addr),
		zap.String("mailbox", m.cfg.Mailbox))

	return &imapSession{
		client:   client,
		username: m.cfg.Username,
		logger:   m.logger,
	}, nil
}

// imapSession is one open, authenticated IMAP session.
type imapSession struct {
	client   *imapclient.Client
	username string
	logger   *zap.Logger
}

// ListUnseen searches the selected mailbox for messages without the
// \Seen flag and returns their UIDs.
func (s *imapSession) ListUnseen(_ context.Context) ([]uint32, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}

	imapUIDs := searchData.AllUIDs()
	uids := make([]uint32, 0, len(imapUIDs))
	for _, uid := range imapUIDs {
		uids = append(uids, uint32(uid))
	}
	return uids, nil
}

// Fetch retrieves the envelope and full body for a single message. The
// body section is fetched with Peek so the store does not flag the
// message seen as a side effect; seen flags are set explicitly via
// MarkSeen once the message has actually been inspected.
func (s *imapSession) Fetch(_ context.Context, uid uint32) (*core.Message, error) {
	uidSet := imap.UIDSetNum(imap.UID(uid))

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	buf := fetchCmd.Next()
	if buf == nil {
		return nil, &core.FetchError{UID: uid, Err: fmt.Errorf("message not found")}
	}

	collected, err := buf.Collect()
	if err != nil {
		return nil, &core.FetchError{UID: uid, Err: fmt.Errorf("collecting message data: %w", err)}
	}

	msg := &core.Message{UID: uid}

	if collected.Envelope != nil {
		msg.MessageID = collected.Envelope.MessageID
		msg.Subject = collected.Envelope.Subject
		msg.Date = collected.Envelope.Date
		if len(collected.Envelope.From) > 0 {
			msg.From = collected.Envelope.From[0].Addr()
		}
		for _, to := range collected.Envelope.To {
			msg.To = append(msg.To, to.Addr())
		}
	}

	for _, flag := range collected.Flags {
		if flag == imap.FlagSeen {
			msg.Seen = true
		}
	}

	rawBody := collected.FindBodySection(bodySection)
	if rawBody != nil {
		body, deliveredTo := parseBody(rawBody)
		msg.Body = body
		// Prefer the Delivered-To header for recipient resolution,
		// falling back to the envelope To list, then to the account
		// the watcher is logged in as.
		if deliveredTo != "" {
			msg.To = []string{deliveredTo}
		}
	}
	if len(msg.To) == 0 {
		msg.To = []string{s.username}
	}

	if err := fetchCmd.Close(); err != nil {
		return msg, &core.FetchError{UID: uid, Err: fmt.Errorf("closing fetch: %w", err)}
	}

	return msg, nil
}

// MarkSeen adds the \Seen flag to a message. Adding the flag to an
// already-seen message has no additional effect on the store.
func (s *imapSession) MarkSeen(_ context.Context, uid uint32) error {
	uidSet := imap.UIDSetNum(imap.UID(uid))

	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("marking uid %d seen: %w", uid, err)
	}
	return nil
}

// Close logs out and releases the session.
func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}

// parseBody parses a raw RFC 2822 message with go-message, returning the
// text body (text/plain preferred, text/html as fallback) and the value
// of the Delivered-To header when present. If MIME parsing fails the raw
// bytes are treated as plain text.
func parseBody(raw []byte) (body string, deliveredTo string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}
	defer mr.Close()

	deliveredTo = mr.Header.Get("Delivered-To")

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := header.ContentType()
		content, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			textBody = string(content)
		case strings.HasPrefix(contentType, "text/html"):
			htmlBody = string(content)
		}
	}

	if textBody != "" {
		return textBody, deliveredTo
	}
	return htmlBody, deliveredTo
}
