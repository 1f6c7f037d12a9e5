// Package fetch runs a processing function over many work items with a
// fixed number of concurrent workers.
//
// Run returns a channel of results in completion order. Every item yields
// exactly one result, including items that were never started because the
// context was cancelled, items that timed out and items whose function
// panicked. Failures never stop the rest of the batch.
//
// # Basic Usage
//
//	items := model.NewItems(songs, identify)
//	results := fetch.Run(ctx, items, lookup, fetch.Options{Workers: 8})
//
//	for r := range results {
//	    model.Record(&stats, r)
//	}
//
// # Timeouts
//
// With Options.ItemTimeout set, each call receives a context carrying the
// deadline. When the deadline passes first the item is reported as
// model.ErrTimeout and its worker slot is released immediately. The
// abandoned call keeps running until it observes its cancelled context, so a
// function that ignores its context can briefly push the number of live
// goroutines above Workers. The number of results being waited on never
// exceeds Workers.
//
// # Retries
//
// Run never retries. Retry inside the processing function (see package
// retry) or resubmit the failed items.
package fetch
