// File: internal/services/backend/retry.go
package backend

import (
	"context"
	"errors"
	"time"
)

// RetryConfig defines simple retry behavior for idempotent reads.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryConfig provides sensible defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// retryWithBackoff runs fn until it succeeds, fails permanently or the
// attempts run out. The delay doubles after each failure.
func retryWithBackoff(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	if config == nil || config.MaxAttempts <= 1 {
		return fn(ctx)
	}

	var lastErr error
	delay := config.Delay
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return lastErr
}

// retryable reports whether err is a network or server side failure.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Type == ErrTypeNetwork || apiErr.Type == ErrTypeServer
}
