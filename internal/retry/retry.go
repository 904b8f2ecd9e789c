// Package retry provides the bounded exponential-backoff policy shared by
// device probing, read-failure recovery, and the conversion fallback chain.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy bounds how often and how long an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int
	// InitialDelay is the wait after the first failure.
	InitialDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
}

// DefaultPolicy matches the device-reinitialization schedule: five attempts
// backing off 1s, 2s, 4s, 8s before giving up.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// Delay returns the backoff before the given retry. attempt counts failures
// so far and starts at 1.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// InitialDelay * 2^(attempt-1), capped. The shift is bounded so large
	// attempt values cannot overflow into a negative duration.
	shift := uint(attempt - 1)
	if shift > 16 {
		shift = 16
	}
	delay := p.InitialDelay * time.Duration(1<<shift)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
// Each failure is logged with the upcoming delay; the final failure is
// wrapped with the attempt count.
func Do(ctx context.Context, policy Policy, logger *slog.Logger, what string, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("Recovered after retries", "operation", what, "attempt", attempt)
			}
			return nil
		}

		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		logger.Warn("Operation failed, backing off",
			"operation", what,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay", delay,
			"error", lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", what, policy.MaxAttempts, lastErr)
}
