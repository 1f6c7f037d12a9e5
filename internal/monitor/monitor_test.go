package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu     sync.Mutex
	counts []int64
	errAt  int
	calls  int
}

func (f *fakeSource) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if f.errAt > 0 && i == f.errAt {
		return 0, errors.New("unreachable")
	}
	if i >= len(f.counts) {
		return f.counts[len(f.counts)-1], nil
	}
	return f.counts[i], nil
}

func TestPoll(t *testing.T) {
	src := &fakeSource{counts: []int64{0, 100, 100, 250}, errAt: 2}
	p := New(src, time.Minute, 400, nil)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	first := p.Poll(context.Background())
	if first.Count != 0 || first.Rate != 0 || first.ETA != 0 {
		t.Errorf("first = %+v", first)
	}

	clock = clock.Add(time.Minute)
	second := p.Poll(context.Background())
	if second.Delta != 100 || second.Rate != 100 {
		t.Errorf("second delta=%d rate=%g", second.Delta, second.Rate)
	}
	if second.ETA != 3*time.Minute {
		t.Errorf("ETA = %v, want 3m", second.ETA)
	}

	clock = clock.Add(time.Minute)
	failed := p.Poll(context.Background())
	if failed.Err == nil || failed.Count != 100 {
		t.Errorf("failed poll = %+v", failed)
	}

	clock = clock.Add(time.Minute)
	fourth := p.Poll(context.Background())
	if fourth.Delta != 150 {
		t.Errorf("delta after failure = %d, want 150", fourth.Delta)
	}
	if fourth.Progress() != 250.0/400.0 {
		t.Errorf("Progress() = %g", fourth.Progress())
	}
}

func TestRun_StopsAtExpected(t *testing.T) {
	src := &fakeSource{counts: []int64{10, 20, 30}}
	p := New(src, time.Millisecond, 30, nil)

	var last Snapshot
	n := 0
	for snap := range p.Run(context.Background()) {
		last = snap
		n++
	}

	if !last.Done || last.Count != 30 {
		t.Errorf("last = %+v", last)
	}
	if n != 3 {
		t.Errorf("got %d snapshots, want 3", n)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := &fakeSource{counts: []int64{1}}
	p := New(src, time.Millisecond, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := p.Run(ctx)
	<-ch
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
