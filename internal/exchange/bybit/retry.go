package bybit

import (
	"context"
	"math"
	"time"

	"github.com/quangdle/crypto-signal-bot/internal/exchange"
)

// RetryConfig controls the exponential backoff applied to transient
// failures.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

// DefaultRetryConfig returns the standard backoff: base 1s, factor 2,
// at most 3 attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Factor:       2.0,
	}
}

// retry runs fn with exponential backoff. Only errors the taxonomy
// marks retryable are attempted again; the last error is escalated to
// KindUnknown once attempts are exhausted.
func retry(ctx context.Context, cfg RetryConfig, op string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return exchange.WrapError(exchange.KindNetwork, op, err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !exchange.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return exchange.WrapError(exchange.KindNetwork, op, ctx.Err())
		case <-time.After(backoffDelay(cfg, attempt)):
		}
	}

	return exchange.WrapError(exchange.KindUnknown, op, lastErr)
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Factor, float64(attempt)))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
