package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/handiism/lyrics-harvester/internal/audio"
	"github.com/handiism/lyrics-harvester/internal/model"
)

func songs(n int) []model.Song {
	docs := make([]model.Song, n)
	for i := range docs {
		docs[i] = model.Song{
			UniqueID: model.UniqueID("Artist", string(rune('a'+i%26))+"song", "rock"),
			Artist:   "Artist",
			Title:    "Canção & <Música>",
			Genre:    "rock",
		}
	}
	return docs
}

func TestWriteChunks(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	m, err := WriteChunks(dir, "songs", songs(12), 5, Meta{DatasetVersion: "v4.1", Source: "test", Now: now})
	if err != nil {
		t.Fatalf("WriteChunks() error: %v", err)
	}

	want := []string{"songs_batch_001_of_003.json", "songs_batch_002_of_003.json", "songs_batch_003_of_003.json"}
	if strings.Join(m.Files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", m.Files, want)
	}
	if m.TotalDocuments != 12 || m.TotalFiles != 3 || m.DocumentsPerFile != 5 {
		t.Errorf("manifest = %+v", m)
	}

	data, err := os.ReadFile(filepath.Join(dir, want[0]))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Canção & <Música>") {
		t.Error("chunk should keep non-ASCII and HTML characters unescaped")
	}
	if strings.Contains(string(data), "\n  ") {
		t.Error("chunk should be compact JSON")
	}

	got, manifest, err := ReadChunks[model.Song](dir)
	if err != nil {
		t.Fatalf("ReadChunks() error: %v", err)
	}
	if len(got) != 12 || !manifest.ProcessingDate.Equal(now) || manifest.DatasetVersion != "v4.1" {
		t.Errorf("read %d docs, manifest %+v", len(got), manifest)
	}
}

func TestWriteChunks_Empty(t *testing.T) {
	dir := t.TempDir()
	m, err := WriteChunks[model.Song](dir, "songs", nil, 100, Meta{})
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d", m.TotalFiles)
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
}

func TestWriteChunks_InvalidSize(t *testing.T) {
	if _, err := WriteChunks(t.TempDir(), "songs", songs(1), 0, Meta{}); err == nil {
		t.Error("expected error for zero documents per file")
	}
}

func TestReadChunks_DetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	if _, err := WriteChunks(dir, "songs", songs(6), 3, Meta{}); err != nil {
		t.Fatal(err)
	}
	if err := WriteArray(filepath.Join(dir, "songs_batch_002_of_002.json"), songs(1)); err != nil {
		t.Fatal(err)
	}

	if _, _, err := ReadChunks[model.Song](dir); !errors.Is(err, ErrManifestMismatch) {
		t.Errorf("ReadChunks() = %v, want ErrManifestMismatch", err)
	}
}

func TestWritePlaylists(t *testing.T) {
	dir := t.TempDir()
	pl := audio.Playlist{Name: "party/night", Songs: []model.Song{{
		Artist: "A", Title: "B", SpotifyFound: true,
		Spotify: &model.SpotifyTrack{URL: "https://open.spotify.com/track/1"},
	}}}

	names, err := WritePlaylists(dir, []audio.Playlist{pl}, audio.NewPlaylistCreator(audio.FormatM3U, false))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "party_night.m3u" {
		t.Errorf("names = %v", names)
	}
}
