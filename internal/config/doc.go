// Package config provides configuration management for lyrics-harvester.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Environment overrides, including a .env file
//
// # Default Settings
//
// Use DefaultSettings() to get the defaults the pipeline was tuned with:
//
//	settings := config.DefaultSettings()
//	// 8 artist workers, 6 song workers, 48 enrichment workers
//	// 0.5s between scrape requests, 0.1s between catalog requests
//	// 5000 documents per export file
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Environment
//
// ApplyEnv reads an optional .env file with godotenv and then applies the
// following variables:
//
//	SPOTIFY_CLIENT_ID=...
//	SPOTIFY_CLIENT_SECRET=...
//	MAX_WORKERS=48
//	BATCH_SIZE=1000
//	RATE_LIMIT_DELAY=0.1
//	SAMPLE_SIZE=0
//
// Durations are stored as float seconds; use Seconds to convert.
package config
