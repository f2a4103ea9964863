package util

import (
	"context"
	"time"
)

// Retry runs fn up to maxAttempts times, doubling the delay between
// attempts starting from baseDelay. It stops at the first success and
// otherwise returns the final attempt's error. Context cancellation is
// honored while sleeping, never mid-attempt.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	delay := baseDelay

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
