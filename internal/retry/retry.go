package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Config bounds a retried operation: attempts, backoff window, and the
// per-attempt timeout applied to the operation's context.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

// WithRetry runs operation until it succeeds or MaxRetries is exhausted.
// Each attempt gets its own timeout context derived from ctx.
func WithRetry[T any](ctx context.Context, config Config, operation func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		opCtx, cancel := context.WithTimeout(ctx, config.Timeout)
		result, err := operation(opCtx)
		cancel()

		if err == nil {
			return result, nil
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Operation failed")

		if attempt == config.MaxRetries {
			return zero, fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, err)
		}

		delay := BackoffDelay(attempt, config.BaseDelay, config.MaxDelay)
		log.Debug().
			Dur("delay", delay).
			Int("next_attempt", attempt+2).
			Msg("Retrying after delay")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, fmt.Errorf("unexpected: exceeded retry loop")
}

// BackoffDelay doubles BaseDelay per attempt with 0.5x-1.5x jitter,
// capped at maxDelay.
func BackoffDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	// cap the shift so the multiplier can't overflow
	shift := min(attempt, 30)
	delay := time.Duration(1<<shift) * baseDelay
	if delay > maxDelay {
		delay = maxDelay
	}

	jitter := 0.5 + rand.Float64()
	delay = time.Duration(float64(delay) * jitter)
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}
