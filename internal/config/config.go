package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// Config represents the application configuration. The historical flat
// keys (imap_server, webhook_url, email_senders, keywords,
// check_interval_seconds, recipient_exclude_list) are kept as-is;
// options added by this implementation live under dotted sections.
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/discord-gmail-keyword-notifier/")
	v.AddConfigPath("$HOME/.discord-gmail-keyword-notifier")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("GMAIL_NOTIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	cfg := &Config{v: v}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Mailbox access defaults
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.tls", true)

	// Polling defaults
	v.SetDefault("check_interval_seconds", 300)
	v.SetDefault("poll.mark_seen", true)

	// Matching defaults
	v.SetDefault("email_senders", []string{})
	v.SetDefault("keywords", []string{})
	v.SetDefault("recipient_exclude_list", []string{})
	v.SetDefault("match.empty_senders", "none")
	v.SetDefault("match.empty_keywords", "none")

	// Webhook defaults
	v.SetDefault("webhook.format", "discord")
	v.SetDefault("webhook.username", "Gmail Keyword Notifier")
	v.SetDefault("webhook.avatar_url", "https://uxwing.com/wp-content/themes/uxwing/download/signs-and-symbols/alert-bell-icon.png")
	v.SetDefault("webhook.timeout", "10s")

	// Delivery retry defaults
	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.retry_delay", "5s")
	v.SetDefault("notify.excerpt_max_bytes", 500)

	// Notification history defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.type", "memory")
	v.SetDefault("history.ttl", "720h")
	v.SetDefault("history.cleanup_frequency", "1h")
	v.SetDefault("history.sqlite_path", "/data/notifier_history.db")
	v.SetDefault("history.mysql_dsn", "user:password@tcp(localhost:3306)/notifier")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.verbose_file", "")
	v.SetDefault("logging.verbose_max_size_mb", 50)
	v.SetDefault("logging.verbose_max_backups", 3)
}

// Validate checks the required fields. A validation failure is fatal at
// startup: the process must exit before the poll loop is entered.
func (c *Config) Validate() error {
	if c.GetString("imap_server") == "" {
		return &core.ConfigError{Field: "imap_server", Reason: "required"}
	}
	if c.GetString("imap_user") == "" {
		return &core.ConfigError{Field: "imap_user", Reason: "required"}
	}
	if c.GetString("imap_password") == "" {
		return &core.ConfigError{Field: "imap_password", Reason: "required"}
	}

	webhookURL := c.GetString("webhook_url")
	if webhookURL == "" {
		return &core.ConfigError{Field: "webhook_url", Reason: "required"}
	}
	u, err := url.Parse(webhookURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &core.ConfigError{Field: "webhook_url", Reason: fmt.Sprintf("not a valid http(s) URL: %q", webhookURL)}
	}

	if c.GetInt("check_interval_seconds") <= 0 {
		return &core.ConfigError{Field: "check_interval_seconds", Reason: "must be a positive number of seconds"}
	}

	switch c.GetString("webhook.format") {
	case "discord", "generic":
	default:
		return &core.ConfigError{Field: "webhook.format", Reason: "must be one of: discord, generic"}
	}

	switch core.EmptyListPolicy(c.GetString("match.empty_senders")) {
	case core.MatchNone, core.MatchAll:
	default:
		return &core.ConfigError{Field: "match.empty_senders", Reason: "must be one of: none, all"}
	}
	switch core.EmptyListPolicy(c.GetString("match.empty_keywords")) {
	case core.MatchNone, core.MatchAll:
	default:
		return &core.ConfigError{Field: "match.empty_keywords", Reason: "must be one of: none, all"}
	}

	switch c.GetString("history.type") {
	case "memory", "sqlite", "mysql":
	default:
		return &core.ConfigError{Field: "history.type", Reason: "must be one of: memory, sqlite, mysql"}
	}

	if c.GetInt("notify.max_attempts") < 1 {
		return &core.ConfigError{Field: "notify.max_attempts", Reason: "must be at least 1"}
	}

	return nil
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
