// Package monitor polls a document store and reports load progress.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatsSource is anything that can count stored documents.
type StatsSource interface {
	Count(ctx context.Context) (int64, error)
}

// Snapshot is one poll result.
type Snapshot struct {
	At       time.Time
	Elapsed  time.Duration
	Count    int64
	Delta    int64
	Rate     float64 // documents per minute since start
	Expected int64
	ETA      time.Duration // zero when unknown
	Done     bool
	Err      error
}

// Progress returns Count/Expected in [0, 1], or 0 without an expected total.
func (s Snapshot) Progress() float64 {
	if s.Expected <= 0 {
		return 0
	}
	return min(float64(s.Count)/float64(s.Expected), 1)
}

// Poller checks a StatsSource at a fixed interval.
type Poller struct {
	source   StatsSource
	interval time.Duration
	expected int64
	log      *zap.Logger
	now      func() time.Time

	start time.Time
	last  int64
}

// New creates a Poller. expected of zero disables the ETA and completion
// check. A nil logger disables logging.
func New(source StatsSource, interval time.Duration, expected int64, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		source:   source,
		interval: interval,
		expected: expected,
		log:      log,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled or the expected total is reached. The
// returned channel is closed when polling stops; the final snapshot of a
// completed run has Done set.
func (p *Poller) Run(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)

		p.log.Info("monitor_started",
			zap.Duration("interval", p.interval),
			zap.Int64("expected", p.expected),
		)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			snap := p.Poll(ctx)
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
			if snap.Done {
				p.log.Info("monitor_completed", zap.Int64("count", snap.Count))
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				p.log.Info("monitor_stopped")
				return
			}
		}
	}()

	return out
}

// Poll takes one measurement.
func (p *Poller) Poll(ctx context.Context) Snapshot {
	now := p.now()
	if p.start.IsZero() {
		p.start = now
	}
	snap := Snapshot{At: now, Elapsed: now.Sub(p.start), Expected: p.expected}

	count, err := p.source.Count(ctx)
	if err != nil {
		snap.Err = err
		snap.Count = p.last
		p.log.Warn("monitor_count_failed", zap.Error(err))
		return snap
	}

	snap.Count = count
	snap.Delta = count - p.last
	p.last = count

	if minutes := snap.Elapsed.Minutes(); minutes > 0 && count > 0 {
		snap.Rate = float64(count) / minutes
	}
	if p.expected > 0 {
		if count >= p.expected {
			snap.Done = true
		} else if snap.Rate > 0 {
			remaining := float64(p.expected - count)
			snap.ETA = time.Duration(remaining / snap.Rate * float64(time.Minute))
		}
	}

	fields := []zap.Field{
		zap.Int64("count", snap.Count),
		zap.Int64("delta", snap.Delta),
		zap.Float64("docs_per_min", snap.Rate),
	}
	if snap.ETA > 0 {
		fields = append(fields, zap.Duration("eta", snap.ETA))
	}
	p.log.Info("monitor_progress", fields...)

	return snap
}
