package model

import (
	"errors"
	"time"
)

// Outcome tags a FetchResult.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// FetchResult is the outcome of processing one WorkItem.
//
// Payload is only meaningful when Outcome is OutcomeSuccess. Err is set for
// OutcomeError and may be set for OutcomeNotFound.
type FetchResult[T, P any] struct {
	Item    WorkItem[T]
	Outcome Outcome
	Payload P
	Err     error
	Latency time.Duration
}

// Succeeded builds a success result.
func Succeeded[T, P any](item WorkItem[T], payload P, latency time.Duration) FetchResult[T, P] {
	return FetchResult[T, P]{Item: item, Outcome: OutcomeSuccess, Payload: payload, Latency: latency}
}

// Missing builds a not-found result.
func Missing[T, P any](item WorkItem[T], err error, latency time.Duration) FetchResult[T, P] {
	return FetchResult[T, P]{Item: item, Outcome: OutcomeNotFound, Err: err, Latency: latency}
}

// Failed builds an error result.
func Failed[T, P any](item WorkItem[T], err error, latency time.Duration) FetchResult[T, P] {
	return FetchResult[T, P]{Item: item, Outcome: OutcomeError, Err: err, Latency: latency}
}

// ResultFrom converts the return values of a processing function into a result.
// Errors wrapping ErrNotFound become OutcomeNotFound.
func ResultFrom[T, P any](item WorkItem[T], payload P, err error, latency time.Duration) FetchResult[T, P] {
	switch {
	case err == nil:
		return Succeeded(item, payload, latency)
	case errors.Is(err, ErrNotFound):
		return Missing[T, P](item, err, latency)
	default:
		return Failed[T, P](item, err, latency)
	}
}

// OK reports whether the result carries a payload.
func (r FetchResult[T, P]) OK() bool {
	return r.Outcome == OutcomeSuccess
}
