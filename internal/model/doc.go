// Package model defines the core data structures used throughout
// the lyrics-harvester pipeline.
//
// # Work items and results
//
// WorkItem is one unit of input to the parallel fetcher. It carries an
// opaque value plus the identity needed to correlate its result:
//
//	item := model.WorkItem[string]{Seq: 0, Category: "rock", Parent: "/queen/", Key: "/queen/bohemian-rhapsody/"}
//
// FetchResult is the outcome of processing one WorkItem: a success payload,
// a not-found, or a typed error. Results arrive in completion order, so the
// Seq of the originating item is the only reliable correlation key.
//
// # Errors
//
// Failures are classified against a small set of sentinels (ErrNotFound,
// ErrRateLimited, ErrAuthFailure, ErrNetwork, ErrTimeout, ErrMalformedInput).
// Wrap them with fmt.Errorf("...: %w", ...) and classify with KindOf.
//
// # Documents
//
// Song is the exported document. Missing catalog data is a modeled state:
// Spotify and Popularity are nil when the catalog had no match, and any
// estimated audio features are flagged with IsEstimated.
package model
