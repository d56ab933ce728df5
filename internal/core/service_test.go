package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/utils"
)

// fakeStore simulates the mail store's durable state: message content
// and per-message seen flags.
type fakeStore struct {
	order      []uint32
	messages   map[uint32]*Message
	seenCalls  map[uint32]int
	fetchErrs  map[uint32]error
	fetched    []uint32
	connectErr error
	listErr    error
	closes     int
}

func newFakeStore(messages ...*Message) *fakeStore {
	s := &fakeStore{
		messages:  make(map[uint32]*Message),
		seenCalls: make(map[uint32]int),
		fetchErrs: make(map[uint32]error),
	}
	for _, m := range messages {
		s.order = append(s.order, m.UID)
		s.messages[m.UID] = m
	}
	return s
}

func (s *fakeStore) Connect(_ context.Context) (MailboxSession, error) {
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	return &fakeSession{store: s}, nil
}

type fakeSession struct {
	store *fakeStore
}

func (f *fakeSession) ListUnseen(_ context.Context) ([]uint32, error) {
	if f.store.listErr != nil {
		return nil, f.store.listErr
	}
	var uids []uint32
	for _, uid := range f.store.order {
		if !f.store.messages[uid].Seen {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}

func (f *fakeSession) Fetch(_ context.Context, uid uint32) (*Message, error) {
	if err := f.store.fetchErrs[uid]; err != nil {
		return nil, err
	}
	f.store.fetched = append(f.store.fetched, uid)
	msg, ok := f.store.messages[uid]
	if !ok {
		return nil, &FetchError{UID: uid, Err: errors.New("not found")}
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeSession) MarkSeen(_ context.Context, uid uint32) error {
	// Marking an already-seen message has no additional effect.
	f.store.seenCalls[uid]++
	f.store.messages[uid].Seen = true
	return nil
}

func (f *fakeSession) Close() error {
	f.store.closes++
	return nil
}

type fakeNotifier struct {
	notifications []*Notification
	err           error
}

func (n *fakeNotifier) Notify(_ context.Context, notification *Notification) error {
	if n.err != nil {
		return n.err
	}
	n.notifications = append(n.notifications, notification)
	return nil
}

type fakeHistory struct {
	seen     map[string]bool
	recorded []*HistoryEntry
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{seen: make(map[string]bool)}
}

func (h *fakeHistory) Seen(_ context.Context, key string) (bool, error) {
	return h.seen[key], nil
}

func (h *fakeHistory) Record(_ context.Context, entry *HistoryEntry) error {
	h.seen[entry.Key] = true
	h.recorded = append(h.recorded, entry)
	return nil
}

func (h *fakeHistory) Cleanup(_ context.Context) error {
	return nil
}

func testOptions() WatchOptions {
	return WatchOptions{
		Criteria:       baseCriteria(),
		MailboxName:    "INBOX",
		MarkSeen:       true,
		HistoryEnabled: true,
		HistoryTTL:     time.Hour,
		ExcerptMax:     500,
	}
}

func newTestService(store *fakeStore, notifier *fakeNotifier, history *fakeHistory, opts WatchOptions) *WatchService {
	nop := zap.NewNop()
	var h History
	if history != nil {
		h = history
	}
	return NewWatchService(store, notifier, h, nop, nop, utils.NewTextProcessor(nop), opts)
}

func TestRunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("matched message is notified, recorded, and marked seen", func(t *testing.T) {
		store := newFakeStore(alertMessage())
		notifier := &fakeNotifier{}
		history := newFakeHistory()
		service := newTestService(store, notifier, history, testOptions())

		err := service.RunCycle(ctx)
		require.NoError(t, err)

		require.Len(t, notifier.notifications, 1)
		assert.Equal(t, "urgent", notifier.notifications[0].Match.MatchedKeyword)
		assert.Equal(t, 1, store.seenCalls[42])
		assert.True(t, store.messages[42].Seen)
		require.Len(t, history.recorded, 1)
		assert.Equal(t, "uid:INBOX/42", history.recorded[0].Key)
		assert.Equal(t, 1, store.closes)
	})

	t.Run("unmatched message is marked seen without notification", func(t *testing.T) {
		msg := alertMessage()
		msg.Subject = "weekly report"
		msg.Body = "all quiet"

		store := newFakeStore(msg)
		notifier := &fakeNotifier{}
		service := newTestService(store, notifier, newFakeHistory(), testOptions())

		require.NoError(t, service.RunCycle(ctx))

		assert.Empty(t, notifier.notifications)
		assert.True(t, store.messages[42].Seen)
	})

	t.Run("connect failure skips the cycle without processing", func(t *testing.T) {
		store := newFakeStore(alertMessage())
		store.connectErr = &ConnectionError{Server: "imap.example.com:993", Err: errors.New("dial timeout")}
		notifier := &fakeNotifier{}
		service := newTestService(store, notifier, newFakeHistory(), testOptions())

		err := service.RunCycle(ctx)

		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Empty(t, store.fetched)
		assert.Empty(t, notifier.notifications)
		assert.False(t, store.messages[42].Seen)
	})

	t.Run("list failure ends the cycle but still closes the session", func(t *testing.T) {
		store := newFakeStore(alertMessage())
		store.listErr = errors.New("search failed")
		service := newTestService(store, &fakeNotifier{}, newFakeHistory(), testOptions())

		require.Error(t, service.RunCycle(ctx))
		assert.Equal(t, 1, store.closes)
	})

	t.Run("fetch failure leaves the message unseen and continues", func(t *testing.T) {
		broken := alertMessage()
		fine := alertMessage()
		fine.UID = 43

		store := newFakeStore(broken, fine)
		store.fetchErrs[42] = &FetchError{UID: 42, Err: errors.New("connection reset")}
		notifier := &fakeNotifier{}
		service := newTestService(store, notifier, newFakeHistory(), testOptions())

		require.NoError(t, service.RunCycle(ctx))

		assert.False(t, store.messages[42].Seen)
		assert.True(t, store.messages[43].Seen)
		require.Len(t, notifier.notifications, 1)
		assert.Equal(t, uint32(43), notifier.notifications[0].Message.UID)
	})

	t.Run("delivery failure marks the message seen and continues", func(t *testing.T) {
		first := alertMessage()
		second := alertMessage()
		second.UID = 43

		store := newFakeStore(first, second)
		notifier := &fakeNotifier{err: &DeliveryError{StatusCode: 503, Attempts: 3, Err: errors.New("service unavailable")}}
		history := newFakeHistory()
		service := newTestService(store, notifier, history, testOptions())

		require.NoError(t, service.RunCycle(ctx))

		// Both messages were inspected, so both end up seen even though
		// neither notification went out, and nothing reaches history.
		assert.True(t, store.messages[42].Seen)
		assert.True(t, store.messages[43].Seen)
		assert.Empty(t, history.recorded)
	})

	t.Run("history hit suppresses a duplicate notification", func(t *testing.T) {
		msg := alertMessage()
		msg.MessageID = "<dup@mail.example.com>"

		store := newFakeStore(msg)
		notifier := &fakeNotifier{}
		history := newFakeHistory()
		history.seen["<dup@mail.example.com>"] = true
		service := newTestService(store, notifier, history, testOptions())

		require.NoError(t, service.RunCycle(ctx))

		assert.Empty(t, notifier.notifications)
		assert.True(t, store.messages[42].Seen)
	})

	t.Run("seen messages are not re-fetched in a later cycle", func(t *testing.T) {
		store := newFakeStore(alertMessage())
		notifier := &fakeNotifier{}
		service := newTestService(store, notifier, newFakeHistory(), testOptions())

		require.NoError(t, service.RunCycle(ctx))
		require.NoError(t, service.RunCycle(ctx))

		assert.Len(t, store.fetched, 1)
		assert.Len(t, notifier.notifications, 1)
		assert.Equal(t, 1, store.seenCalls[42])
	})

	t.Run("history dedups when mark-seen is disabled", func(t *testing.T) {
		store := newFakeStore(alertMessage())
		notifier := &fakeNotifier{}
		opts := testOptions()
		opts.MarkSeen = false
		service := newTestService(store, notifier, newFakeHistory(), opts)

		require.NoError(t, service.RunCycle(ctx))
		require.NoError(t, service.RunCycle(ctx))

		// The message stays unseen upstream and is fetched again, but
		// only one notification goes out.
		assert.False(t, store.messages[42].Seen)
		assert.Len(t, store.fetched, 2)
		assert.Len(t, notifier.notifications, 1)
	})

	t.Run("cancelled context stops processing between messages", func(t *testing.T) {
		store := newFakeStore(alertMessage())
		service := newTestService(store, &fakeNotifier{}, newFakeHistory(), testOptions())

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		err := service.RunCycle(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, store.fetched)
	})
}
