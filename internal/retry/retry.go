// Package retry centralizes retry-with-backoff for store operations.
// Every retried call in the codebase goes through Do with a named
// operation so retry behavior and logging stay uniform.
package retry

import (
	"context"
	"log/slog"
	"time"

	backoff "github.com/sethvargo/go-retry"
)

// Config parameterizes a retried operation.
type Config struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt; subsequent
	// delays grow exponentially.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts. Zero means uncapped.
	MaxBackoff time.Duration
}

// DefaultConfig returns the retry policy used for remote store writes.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, or the
// context is done. Every failed attempt is logged at debug level with
// the operation name; the final failure is returned to the caller.
func Do(ctx context.Context, cfg Config, logger *slog.Logger, operation string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}

	b := backoff.NewExponential(cfg.InitialBackoff)
	if cfg.MaxBackoff > 0 {
		b = backoff.WithCappedDuration(cfg.MaxBackoff, b)
	}
	b = backoff.WithMaxRetries(uint64(cfg.MaxAttempts-1), b)

	attempt := 0
	err := backoff.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			logger.Debug("operation attempt failed",
				slog.String("operation", operation),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return backoff.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		logger.Debug("operation exhausted retries",
			slog.String("operation", operation),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()))
	}
	return err
}
