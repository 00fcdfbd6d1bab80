package apperr

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds retries for transient failures.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy is used for fetch and storage calls.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:  3,
	BaseDelay: 200 * time.Millisecond,
	MaxDelay:  2 * time.Second,
}

// Retryable reports whether err may succeed on a later attempt.
// Only fetch and storage failures qualify; a cause exposing Retryable() can opt out.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var hinted interface{ Retryable() bool }
	if errors.As(err, &hinted) {
		return hinted.Retryable()
	}
	switch KindOf(err) {
	case KindFetch, KindStorage:
		return true
	default:
		return false
	}
}

// Retry runs fn until it succeeds, returns a non-retryable error, or attempts run out.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := policy.BaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		err = fn(ctx)
		if err == nil || !Retryable(err) || attempt == attempts {
			return err
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return err
		}
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return err
}
