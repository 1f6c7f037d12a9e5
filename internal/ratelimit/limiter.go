package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter hands out evenly spaced call slots.
type Limiter struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

// New returns a Limiter granting at most one slot per interval.
// A zero or negative interval grants every call immediately.
func New(interval time.Duration) *Limiter {
	return &Limiter{interval: max(interval, 0), now: time.Now}
}

// Interval returns the minimum spacing between slots.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Acquire blocks until the caller's slot arrives and returns the slot time.
//
// The slot is reserved before waiting. If ctx ends during the wait the slot
// is forfeited, not returned, and ctx.Err() is reported.
func (l *Limiter) Acquire(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	slot := l.reserve()
	wait := slot.Sub(l.now())
	if wait <= 0 {
		return slot, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case <-timer.C:
		return slot, nil
	}
}

func (l *Limiter) reserve() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.interval == 0 {
		l.last = now
		return now
	}

	next := l.last.Add(l.interval)
	if next.Before(now) {
		next = now
	}
	l.last = next
	return next
}
