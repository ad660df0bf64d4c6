package backoff

import (
	"context"
	"time"
)

type (
	// Operation to retry.
	Operation func(ctx context.Context) error

	// IsRetriableFunc decides whether an error is worth another attempt.
	IsRetriableFunc func(err error) bool
)

// Retry runs op until it succeeds, the policy exhausts its budget, or the
// context is done. When retries run out the last operation error is
// returned unchanged, so callers see the real failure rather than a
// generic timeout. If isRetriable is nil every error is retried. The wait
// between attempts is cancellable via ctx.
func Retry(ctx context.Context, op Operation, policy RetryPolicy, isRetriable IsRetriableFunc) error {
	if isRetriable == nil {
		isRetriable = func(_ error) bool { return true }
	}

	retrier := NewRetrier(policy)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		if !isRetriable(err) {
			return err
		}

		interval, retryErr := retrier.Next()
		if retryErr != nil {
			// Budget spent; surface the operation's own error.
			return err
		}

		if interval > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
			timer.Stop()
		}
	}
}
