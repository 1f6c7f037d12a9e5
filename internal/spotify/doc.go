// Package spotify enriches songs with catalog metadata from the Spotify
// Web API.
//
// # Tokens
//
// Access tokens come from a TokenSource, normally ClientCredentials. A
// TokenPool hands them out to concurrent lookups: tokens are checked out and
// returned through a bounded queue, expired tokens are dropped on checkout,
// and when the queue runs dry exactly one caller fetches a replacement while
// the others wait for it.
//
//	source := &spotify.ClientCredentials{ClientID: id, ClientSecret: secret}
//	pool := spotify.NewTokenPool(source, 10, m)
//	if err := pool.Warm(ctx, 2); err != nil {
//	    return err
//	}
//
// # Lookups
//
//	client := spotify.NewClient(spotify.Config{}, nil, pool, ratelimit.New(100*time.Millisecond), m)
//	track, err := client.Lookup(ctx, "Legião Urbana", "Tempo Perdido")
//	switch {
//	case errors.Is(err, model.ErrNotFound):
//	    // no match
//	case err != nil:
//	    // rate limited, auth failure, network or timeout
//	}
//
// Failure handling per request:
//
//	429      wait Retry-After (capped), retry up to MaxAttempts
//	401      drop the token, retry once with a fresh one, then ErrAuthFailure
//	network  back off exponentially, retry up to MaxAttempts
//	other    return without retrying
//
// # Data Format
//
// The search endpoint returns full track objects. The dto subpackage mirrors
// the JSON and converts it to model.SpotifyTrack.
package spotify
