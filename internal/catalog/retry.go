package catalog

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"car-archive/internal/logging"
)

// RetryConfig controls retry behavior for transient catalog failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (first try included)
	MaxAttempts int
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff
	MaxDelay time.Duration
}

// DefaultRetryConfig returns sensible defaults for catalog requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusInternalServerError:
		return true
	}
	return false
}

// retryableError reports whether a transport error is worth retrying.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// http.Client.Do wraps transport failures in *url.Error, which
	// implements net.Error. Decode errors and the like do not, and
	// retrying those would never help.
	var netErr net.Error
	return errors.As(err, &netErr)
}

// withRetry runs fn until it succeeds, is non-retryable, or attempts
// are exhausted. fn returns the HTTP status (0 for transport errors)
// and a snippet of the server's error body for failed statuses.
func withRetry(ctx context.Context, cfg RetryConfig, op string, fn func() (int, string, error)) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		status, body, err := fn()
		if err == nil && status < 400 {
			return nil
		}

		if err != nil {
			if !retryableError(err) {
				return err
			}
			lastErr = err
		} else {
			lastErr = &StatusError{Op: op, Status: status, Body: body}
			if !retryableStatus(status) {
				return lastErr
			}
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		logging.Debug("catalog: %s attempt %d/%d failed, retrying in %v: %v",
			op, attempt, cfg.MaxAttempts, delay, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}
