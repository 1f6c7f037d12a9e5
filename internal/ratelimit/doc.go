// Package ratelimit spaces calls to an external service.
//
// A Limiter grants time slots from a single shared timestamp. Slots are
// computed under a mutex, so consecutive grants are at least Interval apart
// no matter how many goroutines call Acquire. The wait for a slot happens
// outside the lock and honours context cancellation.
//
// # Basic Usage
//
//	lim := ratelimit.New(100 * time.Millisecond)
//
//	if _, err := lim.Acquire(ctx); err != nil {
//	    return err // ctx cancelled while waiting
//	}
//	resp, err := client.Get(ctx, url)
//
// The same Limiter must be shared by every caller of one service. Create it
// once and pass it by reference; never copy it.
package ratelimit
