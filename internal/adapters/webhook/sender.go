package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nukewire/discord-gmail-keyword-notifier/internal/core"
)

// sender posts JSON payloads to the webhook endpoint with bounded retry.
// Network errors and 5xx responses are transient and retried with a
// fixed delay; 4xx responses are permanent and fail immediately.
type sender struct {
	url         string
	httpClient  *http.Client
	logger      *zap.Logger
	maxAttempts int
	retryDelay  time.Duration
}

func newSender(url string, timeout time.Duration, maxAttempts int, retryDelay time.Duration, logger *zap.Logger) *sender {
	return &sender{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:      logger,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// post delivers a payload, retrying transient failures up to the
// configured attempt limit. Each delivery carries a unique X-Delivery-ID
// header so attempts can be correlated on the receiving side.
func (s *sender) post(ctx context.Context, payload []byte) error {
	deliveryID := uuid.New().String()

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return &core.DeliveryError{Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(s.retryDelay):
			}
		}

		status, err := s.attempt(ctx, deliveryID, payload)
		if err == nil && status >= 200 && status < 300 {
			if attempt > 1 {
				s.logger.Info("Webhook delivered after retry",
					zap.String("delivery_id", deliveryID),
					zap.Int("attempt", attempt))
			}
			return nil
		}

		if status >= 400 && status < 500 {
			return &core.DeliveryError{
				StatusCode: status,
				Permanent:  true,
				Attempts:   attempt,
				Err:        fmt.Errorf("webhook rejected the payload"),
			}
		}

		lastStatus = status
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("server returned status %d", status)
		}

		s.logger.Warn("Webhook delivery attempt failed",
			zap.String("delivery_id", deliveryID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts),
			zap.Int("status", status),
			zap.Error(lastErr))
	}

	return &core.DeliveryError{
		StatusCode: lastStatus,
		Attempts:   s.maxAttempts,
		Err:        lastErr,
	}
}

// attempt performs a single POST. A status of 0 means the request never
// produced a response.
func (s *sender) attempt(ctx context.Context, deliveryID string, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-ID", deliveryID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending webhook request: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused across attempts.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
