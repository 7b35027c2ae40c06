package store

import (
	"context"
	"errors"
	"net"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// maxRetries bounds transient-error retries at two, per §"Failure semantics":
// "retried at most twice with exponential backoff".
const maxRetries = 2

// WithRetry runs fn, retrying transient store errors (connection resets,
// lock timeouts) up to maxRetries times with exponential backoff. Non-transient
// errors are returned immediately.
func WithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)

	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// isTransient classifies network errors (connection resets, timeouts) and
// lock-timeout/deadlock errors as retryable; everything else (constraint
// violations, syntax errors, missing tables) is not.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return true
		}
		return false
	}

	return errors.Is(err, context.DeadlineExceeded)
}
