package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if s.ArtistWorkers != 8 || s.SongWorkers != 6 || s.EnrichWorkers != 48 {
		t.Errorf("workers = %d/%d/%d", s.ArtistWorkers, s.SongWorkers, s.EnrichWorkers)
	}
	if Seconds(s.ScrapeInterval) != 500*time.Millisecond {
		t.Errorf("scrape interval = %v", Seconds(s.ScrapeInterval))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    int
		wantErr bool
	}{
		{"json", "config.json", `{"batch_size": 250}`, 250, false},
		{"yaml", "config.yaml", "batch_size: 300\n", 300, false},
		{"missing file uses defaults", "absent.json", "", 1000, false},
		{"bad json", "bad.json", `{"batch_size":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			s, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if s.BatchSize != tt.want {
				t.Errorf("BatchSize = %d, want %d", s.BatchSize, tt.want)
			}
			if s.Collection != "songs" {
				t.Errorf("unset fields should keep defaults, Collection = %q", s.Collection)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"settings.json", "settings.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			s := DefaultSettings()
			s.Genres = []string{"rock", "samba"}
			if err := s.Save(path); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			got, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if len(got.Genres) != 2 || got.Genres[1] != "samba" {
				t.Errorf("Genres = %v", got.Genres)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "SPOTIFY_CLIENT_ID=file-id\nSPOTIFY_CLIENT_SECRET=file-secret\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("MAX_WORKERS", "12")
	t.Setenv("RATE_LIMIT_DELAY", "0.25")
	t.Setenv("USE_SPOTIFY", "FALSE")
	t.Setenv("SPANISH_ONLY", "true")
	t.Setenv("SEED", "42")
	t.Cleanup(func() { os.Unsetenv("SPOTIFY_CLIENT_SECRET") })

	s := DefaultSettings()
	if err := s.ApplyEnv(envFile); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}

	if s.SpotifyClientID != "env-id" {
		t.Errorf("SpotifyClientID = %q, process env should win over .env", s.SpotifyClientID)
	}
	if s.SpotifyClientSecret != "file-secret" {
		t.Errorf("SpotifyClientSecret = %q", s.SpotifyClientSecret)
	}
	if s.EnrichWorkers != 12 || s.SpotifyInterval != 0.25 || s.UseSpotify {
		t.Errorf("got workers=%d interval=%g use=%v", s.EnrichWorkers, s.SpotifyInterval, s.UseSpotify)
	}
	if !s.SpanishOnly || s.Seed != 42 {
		t.Errorf("got spanish_only=%v seed=%d", s.SpanishOnly, s.Seed)
	}
	if !s.HasCredentials() {
		t.Error("HasCredentials() = false")
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	t.Setenv("BATCH_SIZE", "lots")
	if err := DefaultSettings().ApplyEnv(""); err == nil {
		t.Error("expected error for non-numeric BATCH_SIZE")
	}
}

func TestApplyEnv_BadSeed(t *testing.T) {
	t.Setenv("SEED", "random")
	if err := DefaultSettings().ApplyEnv(""); err == nil {
		t.Error("expected error for non-numeric SEED")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero workers", func(s *Settings) { s.EnrichWorkers = 0 }},
		{"negative interval", func(s *Settings) { s.ScrapeInterval = -1 }},
		{"negative sample", func(s *Settings) { s.SampleSize = -5 }},
		{"unknown playlist format", func(s *Settings) { s.PlaylistFormat = "zpl" }},
		{"no collection", func(s *Settings) { s.Collection = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolveGenres(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.txt")
	if err := os.WriteFile(path, []byte("rock\n\n  mpb  \nsamba\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := DefaultSettings()
	s.GenresFile = path
	got, err := s.ResolveGenres()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[1] != "mpb" {
		t.Errorf("genres = %v", got)
	}

	s.Genres = []string{"forro"}
	if got, _ := s.ResolveGenres(); len(got) != 1 || got[0] != "forro" {
		t.Errorf("explicit genres should win, got %v", got)
	}
}

func TestSpanishFilter(t *testing.T) {
	dir := t.TempDir()
	artists := filepath.Join(dir, "artists.txt")
	genres := filepath.Join(dir, "genres.txt")
	if err := os.WriteFile(artists, []byte("legiao-urbana\n\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(genres, []byte("mpb\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := DefaultSettings()
	s.SpanishArtistsFile = artists
	s.SpanishGenresFile = genres
	f, err := s.SpanishFilter()
	if err != nil {
		t.Fatalf("SpanishFilter() error: %v", err)
	}
	if !f.Match("/legiao-urbana/", "rock") || !f.Match("/titas/", "mpb") || !f.Match("/bad-bunny/", "pop") {
		t.Error("filter should combine built-in and file lists")
	}
	if f.Match("/titas/", "rock") {
		t.Error("unrelated artist matched")
	}

	s.SpanishGenresFile = filepath.Join(dir, "missing.txt")
	if _, err := s.SpanishFilter(); err == nil {
		t.Error("expected error for missing genres file")
	}
}

func TestRunSeed(t *testing.T) {
	now := time.Unix(0, 1234)

	s := DefaultSettings()
	if got := s.RunSeed(now); got != 1234 {
		t.Errorf("RunSeed() without seed = %d, want 1234", got)
	}

	s.Seed = 7
	if a, b := s.RunSeed(now), s.RunSeed(now.Add(time.Hour)); a != 7 || b != 7 {
		t.Errorf("RunSeed() = %d, %d, want 7", a, b)
	}
}
