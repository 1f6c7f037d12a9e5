// Package audio estimates audio features for songs and builds playlists
// from them.
//
// # Feature Estimation
//
// The catalog's audio-feature endpoint is not available to this pipeline,
// so every feature value is estimated from the track's popularity and
// random variation. Estimated values are always flagged:
//
//	est := audio.NewEstimator(42) // fixed seed for reproducible runs
//	features := est.Estimate(song.Popularity)
//	// features.Estimated == true
//
// A nil popularity, as for songs with no catalog match, uses a neutral
// baseline of 50. Popularity itself is never invented.
//
// # Playlist Suitability
//
// Suitability derives activity flags (party, study, running...) from a
// feature set using fixed thresholds:
//
//	song.Suitability = audio.Suitability(features)
//
// # Playlist Generation
//
// Generate playlists of matched songs grouped by suitability:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	for _, pl := range audio.SuitabilityPlaylists(songs) {
//	    os.WriteFile(pl.Name+creator.Extension(), []byte(creator.CreatePlaylist(pl)), 0644)
//	}
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
package audio
