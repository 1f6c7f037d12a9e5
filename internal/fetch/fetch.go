package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/handiism/lyrics-harvester/internal/model"
	"golang.org/x/sync/errgroup"
)

// Func processes one item. Returning an error wrapping model.ErrNotFound
// reports the item as not found rather than failed.
type Func[T, P any] func(ctx context.Context, item model.WorkItem[T]) (P, error)

// Options configures Run.
type Options struct {
	// Workers bounds the number of concurrent calls. Values below 1 mean 1.
	Workers int
	// ItemTimeout bounds each call. Zero disables the per-item deadline.
	ItemTimeout time.Duration
}

// Run processes items with at most opts.Workers concurrent calls to process.
//
// The returned channel is buffered for every item and closed once all
// results have been sent, so a slow consumer never stalls the workers.
func Run[T, P any](ctx context.Context, items []model.WorkItem[T], process Func[T, P], opts Options) <-chan model.FetchResult[T, P] {
	out := make(chan model.FetchResult[T, P], len(items))

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(max(opts.Workers, 1))

		for i, item := range items {
			if ctx.Err() != nil {
				for _, rest := range items[i:] {
					out <- cancelled[T, P](rest)
				}
				break
			}

			g.Go(func() error {
				// The slot may have been granted after cancellation.
				if ctx.Err() != nil {
					out <- cancelled[T, P](item)
					return nil
				}
				out <- runOne(ctx, item, process, opts.ItemTimeout)
				return nil
			})
		}

		_ = g.Wait()
	}()

	return out
}

// Collect drains ch and returns the results ordered by Seq together with
// their aggregate counts.
func Collect[T, P any](ch <-chan model.FetchResult[T, P]) ([]model.FetchResult[T, P], model.AggregateStats) {
	var (
		results []model.FetchResult[T, P]
		stats   model.AggregateStats
	)
	for r := range ch {
		model.Record(&stats, r)
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Item.Seq < results[j].Item.Seq })
	return results, stats
}

func cancelled[T, P any](item model.WorkItem[T]) model.FetchResult[T, P] {
	return model.Failed[T, P](item, model.ErrCancelled, 0)
}

type outcome[P any] struct {
	payload P
	err     error
}

func runOne[T, P any](ctx context.Context, item model.WorkItem[T], process Func[T, P], timeout time.Duration) model.FetchResult[T, P] {
	start := time.Now()

	if timeout <= 0 {
		payload, err := call(ctx, item, process)
		return classify(item, payload, err, time.Since(start))
	}

	itemCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome[P], 1)
	go func() {
		payload, err := call(itemCtx, item, process)
		done <- outcome[P]{payload, err}
	}()

	select {
	case o := <-done:
		return classify(item, o.payload, o.err, time.Since(start))
	case <-itemCtx.Done():
		if errors.Is(itemCtx.Err(), context.DeadlineExceeded) {
			err := fmt.Errorf("%s after %v: %w", item.Key, timeout, model.ErrTimeout)
			return model.Failed[T, P](item, err, time.Since(start))
		}
		// Parent cancelled: the call is in flight, let it finish.
		o := <-done
		return classify(item, o.payload, o.err, time.Since(start))
	}
}

func call[T, P any](ctx context.Context, item model.WorkItem[T], process Func[T, P]) (payload P, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v: %w", item.Key, r, model.ErrPanic)
		}
	}()
	return process(ctx, item)
}

func classify[T, P any](item model.WorkItem[T], payload P, err error, latency time.Duration) model.FetchResult[T, P] {
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, model.ErrTimeout) {
		err = fmt.Errorf("%w: %w", model.ErrTimeout, err)
	}
	return model.ResultFrom(item, payload, err, latency)
}
