package indexer

import (
	"errors"
	"math/rand/v2"
	"time"
)

// MaxRetries bounds upsert attempts for retryable errors.
const MaxRetries = 3

// RetryableError marks a sink failure worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return "retryable: " + e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

type temporary interface {
	Temporary() bool
}

// IsRetryable reports whether err is a RetryableError or reports itself as
// temporary, as supabase.StatusError does for 429 and 5xx responses.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) {
		return true
	}
	var tmp temporary
	return errors.As(err, &tmp) && tmp.Temporary()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
