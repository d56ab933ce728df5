package config

import (
	"time"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// IMAPConfig represents the mail store connection settings
type IMAPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Mailbox  string
	TLS      bool
}

// WebhookConfig represents the notification endpoint settings
type WebhookConfig struct {
	URL       string
	Format    string
	Username  string
	AvatarURL string
	Timeout   time.Duration
}

// PollConfig represents the poll loop settings
type PollConfig struct {
	Interval time.Duration
	MarkSeen bool
}

// NotifyConfig represents the delivery retry settings
type NotifyConfig struct {
	MaxAttempts     int
	RetryDelay      time.Duration
	ExcerptMaxBytes int
}

// HistoryConfig represents the notification history settings
type HistoryConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// LoggingConfig represents the log output settings
type LoggingConfig struct {
	Level            string
	Format           string
	VerboseFile      string
	VerboseMaxSizeMB int
	VerboseBackups   int
}

// GetIMAP returns the mail store configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Server:   c.GetString("imap_server"),
		Port:     c.GetInt("imap.port"),
		Username: c.GetString("imap_user"),
		Password: c.GetString("imap_password"),
		Mailbox:  c.GetString("imap.mailbox"),
		TLS:      c.GetBool("imap.tls"),
	}
}

// GetWebhook returns the webhook configuration
func (c *Config) GetWebhook() WebhookConfig {
	timeout, err := c.GetDuration("webhook.timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return WebhookConfig{
		URL:       c.GetString("webhook_url"),
		Format:    c.GetString("webhook.format"),
		Username:  c.GetString("webhook.username"),
		AvatarURL: c.GetString("webhook.avatar_url"),
		Timeout:   timeout,
	}
}

// GetCriteria returns the configured matching criteria
func (c *Config) GetCriteria() core.Criteria {
	return core.Criteria{
		Senders:           c.GetStringSlice("email_senders"),
		Keywords:          c.GetStringSlice("keywords"),
		ExcludeRecipients: c.GetStringSlice("recipient_exclude_list"),
		EmptySenders:      core.EmptyListPolicy(c.GetString("match.empty_senders")),
		EmptyKeywords:     core.EmptyListPolicy(c.GetString("match.empty_keywords")),
	}
}

// GetPoll returns the poll loop configuration
func (c *Config) GetPoll() PollConfig {
	return PollConfig{
		Interval: time.Duration(c.GetInt("check_interval_seconds")) * time.Second,
		MarkSeen: c.GetBool("poll.mark_seen"),
	}
}

// GetNotify returns the delivery retry configuration
func (c *Config) GetNotify() NotifyConfig {
	delay, err := c.GetDuration("notify.retry_delay")
	if err != nil {
		delay = 5 * time.Second
	}
	return NotifyConfig{
		MaxAttempts:     c.GetInt("notify.max_attempts"),
		RetryDelay:      delay,
		ExcerptMaxBytes: c.GetInt("notify.excerpt_max_bytes"),
	}
}

// GetHistory returns the notification history configuration
func (c *Config) GetHistory() HistoryConfig {
	ttl, err := c.GetDuration("history.ttl")
	if err != nil {
		ttl = 720 * time.Hour
	}
	cleanup, err := c.GetDuration("history.cleanup_frequency")
	if err != nil {
		cleanup = time.Hour
	}
	return HistoryConfig{
		Enabled:          c.GetBool("history.enabled"),
		Type:             c.GetString("history.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("history.sqlite_path"),
		MySQLDSN:         c.GetString("history.mysql_dsn"),
	}
}

// GetLogging returns the log output configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:            c.GetString("logging.level"),
		Format:           c.GetString("logging.format"),
		VerboseFile:      c.GetString("logging.verbose_file"),
		VerboseMaxSizeMB: c.GetInt("logging.verbose_max_size_mb"),
		VerboseBackups:   c.GetInt("logging.verbose_max_backups"),
	}
}
