// Package retry runs an operation again after transient failures.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// Policy describes how often and how long to retry.
//
// MaxAttempts counts the first call; values below 1 are treated as 1.
// A nil Retryable retries every error. A nil Backoff retries immediately.
// MaxWait, when positive, caps every wait including server-requested ones.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
	MaxWait     time.Duration
	OnRetry     func(attempt int, err error, wait time.Duration)
}

// RetryAfter is implemented by errors that carry a server-requested delay.
// A positive value replaces the policy's backoff for that attempt.
type RetryAfter interface {
	RetryAfter() time.Duration
}

// Exponential returns cooldown * exponent^attempt, capped at limit when
// limit is positive. attempt starts at 0.
func Exponential(cooldown time.Duration, exponent float64, limit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := time.Duration(float64(cooldown) * math.Pow(exponent, float64(attempt)))
		if limit > 0 && (d > limit || d < 0) {
			return limit
		}
		return d
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 || !p.retryable(err) {
			return err
		}

		wait := p.delay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, wait)
		}
		if werr := Wait(ctx, wait); werr != nil {
			return err
		}
	}
	return err
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) delay(attempt int, err error) time.Duration {
	var d time.Duration
	var ra RetryAfter
	if errors.As(err, &ra) {
		d = ra.RetryAfter()
	}
	if d <= 0 && p.Backoff != nil {
		d = p.Backoff(attempt)
	}
	if p.MaxWait > 0 {
		d = min(d, p.MaxWait)
	}
	return d
}

// Wait sleeps for d or until ctx ends.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
