package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/config"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/factory"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/logging"
	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/utils"
)

var (
	// Matching flags
	senders       = flag.String("senders", "", "Comma-separated sender addresses or domains to match")
	keywords      = flag.String("keywords", "", "Comma-separated keywords to match in subject or body")
	exclude       = flag.String("exclude", "", "Comma-separated recipient addresses to exclude")
	emptySenders  = flag.String("empty-senders", "none", "Empty sender list policy (none, all)")
	emptyKeywords = flag.String("empty-keywords", "none", "Empty keyword list policy (none, all)")

	// Delivery flags
	send        = flag.Bool("send", false, "Deliver a webhook notification when the message matches")
	webhookURL  = flag.String("webhook-url", "", "Webhook URL (required with -send)")
	format      = flag.String("format", "discord", "Webhook payload format (discord, generic)")
	excerptSize = flag.Int("excerpt-size", 500, "Maximum excerpt size in bytes")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.Bool("config", false, "Load criteria from the config file instead of flags")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var criteria core.Criteria
	var cfg *config.Config

	if *configFile {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		criteria = cfg.GetCriteria()
	} else {
		criteria = core.Criteria{
			Senders:           splitList(*senders),
			Keywords:          splitList(*keywords),
			ExcludeRecipients: splitList(*exclude),
			EmptySenders:      core.EmptyListPolicy(*emptySenders),
			EmptyKeywords:     core.EmptyListPolicy(*emptyKeywords),
		}
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	parsed, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	bodyBytes, err := io.ReadAll(parsed.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}

	from := parsed.Header.Get("From")
	if addr, err := mail.ParseAddress(from); err == nil {
		from = addr.Address
	}

	recipients := splitList(parsed.Header.Get("To"))
	if deliveredTo := parsed.Header.Get("Delivered-To"); deliveredTo != "" {
		recipients = []string{deliveredTo}
	}

	msg := &core.Message{
		MessageID: parsed.Header.Get("Message-Id"),
		From:      from,
		To:        recipients,
		Subject:   parsed.Header.Get("Subject"),
		Body:      string(bodyBytes),
	}

	// Print message summary
	fmt.Printf("\n=== Message Summary ===\n")
	fmt.Printf("From: %s\n", msg.From)
	fmt.Printf("To: %s\n", strings.Join(msg.To, ", "))
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.Body))

	// Evaluate criteria
	result, matched := core.MatchMessage(msg, criteria)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Matched: %t\n", matched)
	if matched {
		fmt.Printf("Matched sender entry: %s\n", result.MatchedSender)
		fmt.Printf("Matched keyword: %s\n", result.MatchedKeyword)
	}

	if !matched || !*send {
		return
	}

	// Deliver the notification
	if cfg == nil {
		if *webhookURL == "" {
			logger.Fatal("A webhook URL is required with -send")
		}
		v := config.NewEmptyViper()
		v.Set("webhook_url", *webhookURL)
		v.Set("webhook.format", *format)
		v.Set("notify.excerpt_max_bytes", *excerptSize)
		cfg = config.NewFromViper(v)
	}

	notifier, err := factory.NewNotifierFactory(cfg, logger).CreateNotifier()
	if err != nil {
		logger.Fatal("Failed to create notifier", zap.Error(err))
	}

	textProc := utils.NewTextProcessor(logger)
	notification := &core.Notification{
		Message: msg,
		Match:   result,
		Excerpt: textProc.ProcessText(msg.Body, cfg.GetNotify().ExcerptMaxBytes),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := notifier.Notify(ctx, notification); err != nil {
		logger.Fatal("Failed to deliver notification", zap.Error(err))
	}
	fmt.Printf("\nNotification delivered to %s\n", cfg.GetWebhook().URL)
}

// splitList splits a comma-separated flag value, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
