package market

import (
	"context"
	"time"

	"github.com/hanriver/tradepilot/internal/errs"
)

// WithRetry retries fn up to maxAttempts times on a Transient classified
// error, backing off exponentially from a 10s base capped at 30s, per §4.1.
func WithRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	const (
		base = 10 * time.Second
		cap_ = 30 * time.Second
	)
	var lastErr error
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !errs.IsRetryable(lastErr) || attempt == maxAttempts {
			return lastErr
		}
		wait := base * time.Duration(1<<attempt)
		if wait > cap_ {
			wait = cap_
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}
