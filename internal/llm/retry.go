package llm

import (
	"context"
	"time"
)

// maxRetries is how many times a retryable failure is reattempted on top of
// the initial call.
const maxRetries = 3

// retryWithBackoff runs fn up to maxRetries+1 times with exponential
// backoff (1s, 2s, 4s) between attempts. Only retryable errors are retried;
// auth and parse errors return immediately. The caller's context bounds the
// whole sequence, backoff waits included.
func retryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return lastErr
}
