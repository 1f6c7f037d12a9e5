package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AggregateStats counts outcomes of a fetch run.
//
// AggregateStats is not safe for concurrent use. It is owned by the goroutine
// that consumes results; workers only produce FetchResults.
type AggregateStats struct {
	Found        int
	NotFound     int
	Errors       int
	Malformed    int
	Filtered     int
	TotalLatency time.Duration
	ByKind       map[ErrorKind]int
}

// Add records one outcome.
func (s *AggregateStats) Add(outcome Outcome, err error, latency time.Duration) {
	switch outcome {
	case OutcomeSuccess:
		s.Found++
	case OutcomeNotFound:
		s.NotFound++
	default:
		s.Errors++
		if s.ByKind == nil {
			s.ByKind = make(map[ErrorKind]int)
		}
		s.ByKind[KindOf(err)]++
	}
	s.TotalLatency += latency
}

// Record is a convenience wrapper around Add for a FetchResult.
func Record[T, P any](s *AggregateStats, r FetchResult[T, P]) {
	s.Add(r.Outcome, r.Err, r.Latency)
}

// AddMalformed counts an item rejected before any external call.
func (s *AggregateStats) AddMalformed() {
	s.Malformed++
}

// AddFiltered counts an item dropped by a content filter before any
// external call.
func (s *AggregateStats) AddFiltered() {
	s.Filtered++
}

// Processed returns the number of items that reached the fetcher.
func (s *AggregateStats) Processed() int {
	return s.Found + s.NotFound + s.Errors
}

// AverageLatency returns TotalLatency divided by Processed, or zero.
func (s *AggregateStats) AverageLatency() time.Duration {
	n := s.Processed()
	if n == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(n)
}

// Merge adds other's counters into s.
func (s *AggregateStats) Merge(other AggregateStats) {
	s.Found += other.Found
	s.NotFound += other.NotFound
	s.Errors += other.Errors
	s.Malformed += other.Malformed
	s.Filtered += other.Filtered
	s.TotalLatency += other.TotalLatency
	for k, v := range other.ByKind {
		if s.ByKind == nil {
			s.ByKind = make(map[ErrorKind]int)
		}
		s.ByKind[k] += v
	}
}

func (s AggregateStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "found=%d not_found=%d errors=%d malformed=%d", s.Found, s.NotFound, s.Errors, s.Malformed)
	if s.Filtered > 0 {
		fmt.Fprintf(&b, " filtered=%d", s.Filtered)
	}

	kinds := make([]ErrorKind, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(&b, " %s=%d", k, s.ByKind[k])
	}
	return b.String()
}
