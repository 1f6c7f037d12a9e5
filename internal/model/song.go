package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Lyrics is the payload scraped for one song page.
type Lyrics struct {
	Title    string `json:"title,omitempty" msgpack:"title"`
	Text     string `json:"lyrics" msgpack:"lyrics"`
	Composer string `json:"composer" msgpack:"composer"`
	Genre    string `json:"genre" msgpack:"genre"`
}

// Song is the document exported to JSON files and loaded into the sink.
//
// Catalog data is optional: Spotify and Popularity stay nil when the catalog
// had no match. Audio features are always estimated, so a non-nil Features
// implies IsEstimated.
type Song struct {
	UniqueID        string `json:"unique_id" msgpack:"unique_id"`
	Genre           string `json:"genre" msgpack:"genre"`
	Artist          string `json:"artist" msgpack:"artist"`
	ArtistPath      string `json:"artist_path" msgpack:"artist_path"`
	SongPath        string `json:"song_path" msgpack:"song_path"`
	Title           string `json:"song_title" msgpack:"song_title"`
	Lyrics          string `json:"lyrics" msgpack:"lyrics"`
	Composer        string `json:"composer,omitempty" msgpack:"composer"`
	LyricsWordCount int    `json:"lyrics_word_count" msgpack:"lyrics_word_count"`

	SpotifyFound bool          `json:"spotify_found" msgpack:"spotify_found"`
	Spotify      *SpotifyTrack `json:"spotify,omitempty" msgpack:"spotify"`
	Popularity   *int          `json:"popularity,omitempty" msgpack:"popularity"`

	Features    *AudioFeatures      `json:"audio_features,omitempty" msgpack:"audio_features"`
	IsEstimated bool                `json:"is_estimated" msgpack:"is_estimated"`
	Suitability PlaylistSuitability `json:"playlist_suitability" msgpack:"playlist_suitability"`

	EnrichError    string    `json:"enrich_error,omitempty" msgpack:"enrich_error"`
	ProcessedAt    time.Time `json:"processed_date" msgpack:"processed_date"`
	Source         string    `json:"source" msgpack:"source"`
	DatasetVersion string    `json:"dataset_version" msgpack:"dataset_version"`
}

// SpotifyTrack is the subset of catalog metadata kept for a matched song.
type SpotifyTrack struct {
	ID                    string   `json:"track_id" msgpack:"track_id"`
	URL                   string   `json:"spotify_url" msgpack:"spotify_url"`
	Name                  string   `json:"track_name" msgpack:"track_name"`
	Artist                string   `json:"artist_name" msgpack:"artist_name"`
	Collaborators         []string `json:"collaborating_artists,omitempty" msgpack:"collaborating_artists"`
	Album                 string   `json:"album_name" msgpack:"album_name"`
	AlbumType             string   `json:"album_type" msgpack:"album_type"`
	ReleaseDate           string   `json:"release_date" msgpack:"release_date"`
	DurationMs            int      `json:"duration_ms" msgpack:"duration_ms"`
	Explicit              bool     `json:"explicit" msgpack:"explicit"`
	Popularity            int      `json:"popularity" msgpack:"popularity"`
	PreviewURL            string   `json:"preview_url,omitempty" msgpack:"preview_url"`
	DiscNumber            int      `json:"disc_number" msgpack:"disc_number"`
	TrackNumber           int      `json:"track_number" msgpack:"track_number"`
	TotalTracks           int      `json:"total_tracks" msgpack:"total_tracks"`
	Images                []string `json:"album_images,omitempty" msgpack:"album_images"`
	AvailableMarketsCount int      `json:"available_markets_count" msgpack:"available_markets_count"`
}

// Length formats DurationMs as m:ss.
func (t *SpotifyTrack) Length() string {
	total := t.DurationMs / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// AudioFeatures mirrors the catalog's audio-feature fields. Every value in
// this repository is estimated; Estimated must be true.
type AudioFeatures struct {
	Energy           float64 `json:"energy" msgpack:"energy"`
	Danceability     float64 `json:"danceability" msgpack:"danceability"`
	Valence          float64 `json:"valence" msgpack:"valence"`
	Speechiness      float64 `json:"speechiness" msgpack:"speechiness"`
	Acousticness     float64 `json:"acousticness" msgpack:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness" msgpack:"instrumentalness"`
	Liveness         float64 `json:"liveness" msgpack:"liveness"`
	Loudness         float64 `json:"loudness" msgpack:"loudness"`
	Tempo            float64 `json:"tempo" msgpack:"tempo"`
	Key              int     `json:"key" msgpack:"key"`
	Mode             int     `json:"mode" msgpack:"mode"`
	TimeSignature    int     `json:"time_signature" msgpack:"time_signature"`
	Estimated        bool    `json:"is_estimated" msgpack:"is_estimated"`
}

// PlaylistSuitability flags the kinds of playlist a song fits.
type PlaylistSuitability struct {
	Party      bool `json:"good_for_party" msgpack:"good_for_party"`
	WorkStudy  bool `json:"good_for_work_study" msgpack:"good_for_work_study"`
	Relaxation bool `json:"good_for_relaxation_meditation" msgpack:"good_for_relaxation_meditation"`
	Exercise   bool `json:"good_for_exercise" msgpack:"good_for_exercise"`
	Running    bool `json:"good_for_running" msgpack:"good_for_running"`
	Yoga       bool `json:"good_for_yoga_stretching" msgpack:"good_for_yoga_stretching"`
	Driving    bool `json:"good_for_driving" msgpack:"good_for_driving"`
	Social     bool `json:"good_for_social_gatherings" msgpack:"good_for_social_gatherings"`
	Morning    bool `json:"good_for_morning_routine" msgpack:"good_for_morning_routine"`
}

// Validation errors returned by Song.Validate.
var (
	ErrMissingID         = errors.New("song has no unique_id")
	ErrUnflaggedEstimate = errors.New("estimated features without is_estimated flag")
	ErrOrphanCatalogData = errors.New("catalog metadata present but spotify_found is false")
)

// Validate checks the document rules: an id is present, estimated
// features are flagged, and catalog metadata only appears on matched songs.
func (s *Song) Validate() error {
	if s.UniqueID == "" {
		return ErrMissingID
	}
	if s.Features != nil && (!s.Features.Estimated || !s.IsEstimated) {
		return fmt.Errorf("%s: %w", s.UniqueID, ErrUnflaggedEstimate)
	}
	if !s.SpotifyFound && s.Spotify != nil {
		return fmt.Errorf("%s: %w", s.UniqueID, ErrOrphanCatalogData)
	}
	return nil
}

// UniqueID builds the stable document id from artist, title and genre:
// lowercase alphanumerics only, truncated to 20, 20 and 15 runes.
func UniqueID(artist, title, genre string) string {
	return compact(artist, 20) + "_" + compact(title, 20) + "_" + compact(genre, 15)
}

func compact(s string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToLower(s) {
		if n == limit {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}
