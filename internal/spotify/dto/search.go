package dto

import "github.com/handiism/lyrics-harvester/internal/model"

// SearchResponse is the body of GET /v1/search?type=track.
type SearchResponse struct {
	Tracks struct {
		Items []JSONTrack `json:"items"`
		Total int         `json:"total"`
	} `json:"tracks"`
}

// JSONTrack is a track object as returned by the Web API.
type JSONTrack struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Popularity       int             `json:"popularity"`
	DurationMs       int             `json:"duration_ms"`
	Explicit         bool            `json:"explicit"`
	PreviewURL       *string         `json:"preview_url"`
	DiscNumber       int             `json:"disc_number"`
	TrackNumber      int             `json:"track_number"`
	ExternalURLs     JSONExternalURL `json:"external_urls"`
	Artists          []JSONArtist    `json:"artists"`
	Album            JSONAlbum       `json:"album"`
	AvailableMarkets []string        `json:"available_markets"`
}

// JSONExternalURL holds the public web link.
type JSONExternalURL struct {
	Spotify string `json:"spotify"`
}

// JSONArtist is a simplified artist object.
type JSONArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JSONAlbum is a simplified album object.
type JSONAlbum struct {
	Name        string      `json:"name"`
	AlbumType   string      `json:"album_type"`
	ReleaseDate string      `json:"release_date"`
	TotalTracks int         `json:"total_tracks"`
	Images      []JSONImage `json:"images"`
}

// JSONImage is one album cover rendition, largest first.
type JSONImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TokenResponse is the body of a client-credentials token grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ToTrack converts JSONTrack to a model.SpotifyTrack.
func (jt *JSONTrack) ToTrack() *model.SpotifyTrack {
	t := &model.SpotifyTrack{
		ID:                    jt.ID,
		URL:                   jt.ExternalURLs.Spotify,
		Name:                  jt.Name,
		Album:                 jt.Album.Name,
		AlbumType:             jt.Album.AlbumType,
		ReleaseDate:           jt.Album.ReleaseDate,
		DurationMs:            jt.DurationMs,
		Explicit:              jt.Explicit,
		Popularity:            jt.Popularity,
		DiscNumber:            jt.DiscNumber,
		TrackNumber:           jt.TrackNumber,
		TotalTracks:           jt.Album.TotalTracks,
		AvailableMarketsCount: len(jt.AvailableMarkets),
	}

	if jt.PreviewURL != nil {
		t.PreviewURL = *jt.PreviewURL
	}

	// First artist is the primary one; the rest are collaborators
	if len(jt.Artists) > 0 {
		t.Artist = jt.Artists[0].Name
		for _, a := range jt.Artists[1:] {
			t.Collaborators = append(t.Collaborators, a.Name)
		}
	}

	for _, img := range jt.Album.Images {
		t.Images = append(t.Images, img.URL)
	}

	return t
}
