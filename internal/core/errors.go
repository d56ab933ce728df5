package core

import (
	"fmt"
)

// ConfigError indicates a missing or malformed required configuration
// value. It is only produced at startup and is fatal to the process.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// ConnectionError indicates a failure to establish or authenticate an
// IMAP session. The current poll cycle is skipped and retried on the
// next interval.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// FetchError indicates a failure to fetch a single message. The message
// is skipped and left unseen so the next cycle retries it.
type FetchError struct {
	UID uint32
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching message uid %d: %v", e.UID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DeliveryError indicates a failed webhook delivery. Permanent failures
// (4xx responses, malformed URLs) are not retried; transient failures
// (network errors, 5xx responses) are retried a bounded number of times
// before the notifier gives up.
type DeliveryError struct {
	StatusCode int
	Permanent  bool
	Attempts   int
	Err        error
}

func (e *DeliveryError) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("webhook delivery failed (%s, status %d, %d attempts): %v", kind, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("webhook delivery failed (%s, %d attempts): %v", kind, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
