package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// embedColor is the blue used for the alert embed.
const embedColor = 3447003

// footerText identifies the notifier in the embed footer.
const footerText = "Discord Gmail Keyword Notifier v1.0"

// DiscordNotifier delivers matched messages as Discord webhook embeds.
type DiscordNotifier struct {
	sender    *sender
	logger    *zap.Logger
	username  string
	avatarURL string
}

// discordPayload is the Discord webhook message format.
type discordPayload struct {
	Content     string         `json:"content"`
	Embeds      []discordEmbed `json:"embeds"`
	Username    string         `json:"username,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	Attachments []string       `json:"attachments"`
}

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Footer      discordFooter `json:"footer"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// NewDiscordNotifier creates a notifier that posts Discord embeds.
func NewDiscordNotifier(cfg config.WebhookConfig, notifyCfg config.NotifyConfig, logger *zap.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		sender:    newSender(cfg.URL, cfg.Timeout, notifyCfg.MaxAttempts, notifyCfg.RetryDelay, logger),
		logger:    logger,
		username:  cfg.Username,
		avatarURL: cfg.AvatarURL,
	}
}

// Notify formats the notification as a Discord embed and delivers it.
func (n *DiscordNotifier) Notify(ctx context.Context, notification *core.Notification) error {
	msg := notification.Message

	var description strings.Builder
	fmt.Fprintf(&description, "**From:** %s\n", msg.From)
	fmt.Fprintf(&description, "**Recipient:** %s\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&description, "**Subject:** %s\n", msg.Subject)
	fmt.Fprintf(&description, "**Matched keyword:** %s", notification.Match.MatchedKeyword)
	if notification.Excerpt != "" {
		fmt.Fprintf(&description, "\n\n%s", notification.Excerpt)
	}

	payload := discordPayload{
		Content: "**EMAIL ALERT**",
		Embeds: []discordEmbed{
			{
				Title:       "Email Details:",
				Description: description.String(),
				Color:       embedColor,
				Footer:      discordFooter{Text: footerText},
			},
		},
		Username:    n.username,
		AvatarURL:   n.avatarURL,
		Attachments: []string{},
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
