package model

import (
	"context"
	"errors"
)

// Sentinel errors shared by every stage. Wrap them with %w; classify with KindOf.
var (
	ErrNotFound       = errors.New("no matching record")
	ErrRateLimited    = errors.New("rate limited")
	ErrAuthFailure    = errors.New("authentication failed")
	ErrNetwork        = errors.New("network error")
	ErrTimeout        = errors.New("timed out")
	ErrMalformedInput = errors.New("malformed input")
	ErrCancelled      = errors.New("cancelled before submission")
	ErrPanic          = errors.New("panic in worker")
)

// ErrorKind is the coarse classification of a failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNotFound
	KindRateLimited
	KindAuthFailure
	KindNetwork
	KindTimeout
	KindMalformedInput
	KindCancelled
	KindPanic
	KindOther
)

// String returns the snake_case name used in logs and metrics labels.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindAuthFailure:
		return "auth_failure"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindMalformedInput:
		return "malformed_input"
	case KindCancelled:
		return "cancelled"
	case KindPanic:
		return "panic"
	default:
		return "other"
	}
}

// KindOf classifies err. Context deadline errors count as timeouts.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrAuthFailure):
		return KindAuthFailure
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrPanic):
		return KindPanic
	default:
		return KindOther
	}
}

// IsTransient reports whether err is worth retrying: rate limiting and
// network blips are, everything else is not.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindNetwork, KindTimeout:
		return true
	}
	return false
}
