// Package retry provides a bounded retry executor with exponential
// backoff and pluggable error classification.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

// ErrExhausted marks an operation that failed on every allowed attempt.
var ErrExhausted = errors.New("all retry attempts failed")

// Config controls how Do executes an operation.
type Config struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt; it doubles for
	// every attempt after that.
	BaseDelay time.Duration
	// Retryable decides whether a failed attempt may be retried. A nil
	// predicate retries nothing.
	Retryable func(error) bool
	// Sleep is overridable for tests; nil means a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig matches the OCR call policy: 4 attempts with 300ms,
// 600ms, 1200ms between them, retrying transient network errors only.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 4,
		BaseDelay:   300 * time.Millisecond,
		Retryable:   IsTransient,
	}
}

// Do executes op until it succeeds, fails with a non-retryable error, or
// exhausts cfg.MaxAttempts. Every attempt is logged with its number and
// elapsed time. A non-retryable error is returned unwrapped on the spot;
// exhaustion wraps the last error with ErrExhausted.
func Do[T any](ctx context.Context, cfg Config, log *slog.Logger, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = waitFor
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := cfg.BaseDelay << (attempt - 2)
			log.Debug("backing off before retry",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		result, err := op(ctx)
		elapsed := time.Since(start)
		if err == nil {
			log.Info("attempt succeeded",
				slog.Int("attempt", attempt),
				slog.Duration("elapsed", elapsed))
			return result, nil
		}
		lastErr = err
		log.Warn("attempt failed",
			slog.Int("attempt", attempt),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))

		if cfg.Retryable == nil || !cfg.Retryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.MaxAttempts, lastErr)
}

func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transientSignatures are connection-level failure messages worth
// retrying. Application-level error responses are deliberately absent.
var transientSignatures = []string{
	"connection refused",
	"connection reset",
	"socket hang up",
	"broken pipe",
	"no such host",
	"dns lookup failed",
	"network is unreachable",
	"timeout",
	"timed out",
}

// IsTransient reports whether err looks like a transient network
// failure, as opposed to an application-level error response.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
