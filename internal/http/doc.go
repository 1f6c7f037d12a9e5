// Package http provides the HTTP client shared by the scraper and the
// Spotify client.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - Status checking with typed errors
//   - HTML parsing into goquery documents
//
// # Basic Usage
//
//	client := http.NewClient(http.WithUserAgent("lyrics-harvester/1.0"))
//
//	// Fetch raw bytes
//	body, err := client.Get(ctx, "https://www.letras.mus.br/mais-acessadas/rock/")
//
//	// Fetch and parse HTML
//	doc, err := client.GetDocument(ctx, pageURL)
//	doc.Find("ol.top-list_art li a").Each(...)
//
// # Errors
//
// Non-2xx responses are returned as *StatusError. It unwraps to the
// matching sentinel from package model, so callers classify with errors.Is:
//
//	429        model.ErrRateLimited (RetryAfter carries the header value)
//	401, 403   model.ErrAuthFailure
//	404        model.ErrNotFound
//	5xx        model.ErrNetwork
//
// Transport failures wrap model.ErrNetwork, and deadline failures wrap
// model.ErrTimeout.
package http
