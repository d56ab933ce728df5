package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// GenericNotifier delivers matched messages as a flat JSON document for
// endpoints that are not Discord-compatible.
type GenericNotifier struct {
	sender *sender
	logger *zap.Logger
}

type genericPayload struct {
	Title          string    `json:"title"`
	Sender         string    `json:"sender"`
	Recipients     []string  `json:"recipients"`
	Subject        string    `json:"subject"`
	MatchedKeyword string    `json:"matched_keyword"`
	Excerpt        string    `json:"excerpt"`
	ReceivedAt     time.Time `json:"received_at"`
}

// NewGenericNotifier creates a notifier that posts flat JSON payloads.
func NewGenericNotifier(cfg config.WebhookConfig, notifyCfg config.NotifyConfig, logger *zap.Logger) *GenericNotifier {
	return &GenericNotifier{
		sender: newSender(cfg.URL, cfg.Timeout, notifyCfg.MaxAttempts, notifyCfg.RetryDelay, logger),
		logger: logger,
	}
}

// Notify formats the notification as flat JSON and delivers it.
func (n *GenericNotifier) Notify(ctx context.Context, notification *core.Notification) error {
	msg := notification.Message

	payload := genericPayload{
		Title:          "Email alert",
		Sender:         msg.From,
		Recipients:     msg.To,
		Subject:        msg.Subject,
		MatchedKeyword: notification.Match.MatchedKeyword,
		Excerpt:        notification.Excerpt,
		ReceivedAt:     msg.Date,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &core.DeliveryError{Permanent: true, Attempts: 0, Err: fmt.Errorf("marshaling payload: %w", err)}
	}

	if err := n.sender.post(ctx, body); err != nil {
		return err
	}

	n.logger.Info("Webhook sent",
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject))
	return nil
}
