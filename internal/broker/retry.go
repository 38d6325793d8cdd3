package broker

import (
	"context"
	"time"
)

// Retry calls fn up to maxAttempts times with exponential backoff starting at
// baseDelay. fn reports whether its error is worth retrying; a non-retryable
// error is returned immediately.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() (retryable bool, err error)) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var retryable bool
		retryable, err = fn()
		if err == nil || !retryable {
			return err
		}

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
