package audio

import (
	"strings"
	"testing"

	"github.com/handiism/lyrics-harvester/internal/model"
)

func TestPlaylistCreator_M3U(t *testing.T) {
	pl := createTestPlaylist()
	creator := NewPlaylistCreator(FormatM3U, false)

	content := creator.CreatePlaylist(pl)

	if !strings.Contains(content, "https://open.spotify.com/track/1") {
		t.Error("M3U should contain track URL")
	}
	if strings.Contains(content, "unmatched") {
		t.Error("M3U should skip songs without a catalog match")
	}
}

func TestPlaylistCreator_M3UExtended(t *testing.T) {
	creator := NewPlaylistCreator(FormatM3U, true)

	content := creator.CreatePlaylist(createTestPlaylist())

	if !strings.HasPrefix(content, "#EXTM3U") {
		t.Error("Extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:180,Test Artist - track1") {
		t.Errorf("Extended M3U should contain #EXTINF, got:\n%s", content)
	}
}

func TestPlaylistCreator_PLS(t *testing.T) {
	creator := NewPlaylistCreator(FormatPLS, false)

	content := creator.CreatePlaylist(createTestPlaylist())

	if !strings.HasPrefix(content, "[playlist]") {
		t.Error("PLS should start with [playlist]")
	}
	if !strings.Contains(content, "NumberOfEntries=2") {
		t.Error("PLS should count only matched songs")
	}
}

func TestPlaylistCreator_WPLEscape(t *testing.T) {
	pl := Playlist{Name: "Rock & <Roll>", Songs: []model.Song{
		matchedSong("Artist & Co", "Track \"Quote\"", "https://open.spotify.com/track/x", 100),
	}}
	content := NewPlaylistCreator(FormatWPL, false).CreatePlaylist(pl)

	if !strings.Contains(content, "<?wpl") {
		t.Error("WPL should contain XML declaration")
	}
	if strings.Contains(content, "<Roll>") || !strings.Contains(content, "&amp;") {
		t.Error("WPL should escape special characters")
	}
}

func TestParsePlaylistFormat(t *testing.T) {
	if ParsePlaylistFormat("PLS") != FormatPLS || ParsePlaylistFormat("wpl") != FormatWPL || ParsePlaylistFormat("") != FormatM3U {
		t.Error("unexpected format mapping")
	}
	if NewPlaylistCreator(FormatWPL, false).Extension() != ".wpl" {
		t.Error("unexpected extension")
	}
}

func TestSuitabilityPlaylists(t *testing.T) {
	party := matchedSong("A", "Dance", "https://open.spotify.com/track/a", 200)
	party.Suitability = model.PlaylistSuitability{Party: true, Social: true}
	calm := matchedSong("B", "Calm", "https://open.spotify.com/track/b", 200)
	calm.Suitability = model.PlaylistSuitability{Yoga: true}
	unmatched := model.Song{Artist: "C", Title: "unmatched", Suitability: model.PlaylistSuitability{Party: true}}

	got := SuitabilityPlaylists([]model.Song{party, calm, unmatched})

	names := make([]string, len(got))
	for i, pl := range got {
		names[i] = pl.Name
	}
	if strings.Join(names, ",") != "party,yoga,social" {
		t.Errorf("playlists = %v", names)
	}
	if len(got[0].Songs) != 1 {
		t.Errorf("party playlist has %d songs, want 1", len(got[0].Songs))
	}
}

func matchedSong(artist, title, url string, seconds int) model.Song {
	return model.Song{
		Artist:       artist,
		Title:        title,
		SpotifyFound: true,
		Spotify:      &model.SpotifyTrack{URL: url, DurationMs: seconds * 1000},
	}
}

func createTestPlaylist() Playlist {
	return Playlist{Name: "test", Songs: []model.Song{
		matchedSong("Test Artist", "track1", "https://open.spotify.com/track/1", 180),
		matchedSong("Test Artist", "track2", "https://open.spotify.com/track/2", 200),
		{Artist: "Test Artist", Title: "unmatched"},
	}}
}
