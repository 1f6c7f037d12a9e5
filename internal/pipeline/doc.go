// Package pipeline provides the orchestration logic for harvesting lyrics
// and enriching them with catalog data.
//
// # Manager
//
// The Manager coordinates the whole run:
//
//  1. Discover the ranked artists of each genre
//  2. List each artist's top songs and scrape their lyrics
//  3. Clean and validate the lyrics
//  4. Look each song up in the catalog and attach feature estimates
//  5. Export chunked JSON with a manifest (and optional playlists)
//  6. Load the documents into the sink
//
// # Basic Usage
//
//	manager := pipeline.NewManager(settings, pipeline.Deps{
//	    Scraper: scraper,
//	    Catalog: client,
//	}, func(event pipeline.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	reports, err := manager.Run(ctx, genres, db)
//
// Each stage can also be run on its own; Scrape and Enrich read the
// checkpoints left by earlier runs.
//
// # Concurrency
//
// Every fan-out goes through the bounded fetcher:
//   - ArtistWorkers: genre pages and artist song lists
//   - SongWorkers: lyrics pages
//   - EnrichWorkers: catalog lookups
//
// # Resume
//
// Scraped lyrics and enriched songs are checkpointed after every batch.
// Items already present are skipped on the next run. Failed lookups are
// not checkpointed and are retried.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// Structured events go to the zap logger and per-stage bars to Deps.Bars.
package pipeline
