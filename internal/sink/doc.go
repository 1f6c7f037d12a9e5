// Package sink stores enriched songs in a SQLite document table.
//
// Each collection is one table. The full song is kept as a JSON document
// next to a few indexed columns used for filtering and statistics:
//
//	unique_id     TEXT PRIMARY KEY
//	genre         TEXT
//	artist        TEXT
//	popularity    INTEGER (NULL when unknown)
//	spotify_found INTEGER
//	estimated     INTEGER
//	doc           TEXT
//
// # Write modes
//
// InsertMany is unordered: a document that fails (validation or a
// duplicate key) is counted and skipped, and the rest are still written.
// UpsertMany replaces documents with the same unique_id.
//
// Reset drops and recreates the collection. It is destructive and is used
// for full refresh loads.
package sink
