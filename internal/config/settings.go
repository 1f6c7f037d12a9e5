package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/handiism/lyrics-harvester/internal/cleaner"
	ioutils "github.com/handiism/lyrics-harvester/internal/io"
)

// Settings holds all configuration options.
type Settings struct {
	// Source settings
	BaseURL            string   `json:"base_url" yaml:"base_url"`
	Genres             []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	GenresFile         string   `json:"genres_file" yaml:"genres_file"`
	MaxArtistsPerGenre int      `json:"max_artists_per_genre" yaml:"max_artists_per_genre"`
	MaxSongsPerArtist  int      `json:"max_songs_per_artist" yaml:"max_songs_per_artist"`
	UserAgent          string   `json:"user_agent" yaml:"user_agent"`

	// Language filter. The files hold one slug per line and extend the
	// built-in lists.
	SpanishOnly        bool   `json:"spanish_only" yaml:"spanish_only"`
	SpanishArtistsFile string `json:"spanish_artists_file,omitempty" yaml:"spanish_artists_file,omitempty"`
	SpanishGenresFile  string `json:"spanish_genres_file,omitempty" yaml:"spanish_genres_file,omitempty"`

	// Concurrency
	ArtistWorkers int     `json:"artist_workers" yaml:"artist_workers"`
	SongWorkers   int     `json:"song_workers" yaml:"song_workers"`
	EnrichWorkers int     `json:"enrich_workers" yaml:"enrich_workers"`
	BatchSize     int     `json:"batch_size" yaml:"batch_size"`
	ItemTimeout   float64 `json:"item_timeout" yaml:"item_timeout"`

	// Rate limiting and retries (seconds)
	ScrapeInterval  float64 `json:"scrape_interval" yaml:"scrape_interval"`
	SpotifyInterval float64 `json:"spotify_interval" yaml:"spotify_interval"`
	MaxRetries      int     `json:"max_retries" yaml:"max_retries"`
	RetryCooldown   float64 `json:"retry_cooldown" yaml:"retry_cooldown"`
	RetryExponent   float64 `json:"retry_exponent" yaml:"retry_exponent"`
	MaxRetryAfter   float64 `json:"max_retry_after" yaml:"max_retry_after"`

	// Catalog settings
	UseSpotify               bool    `json:"use_spotify" yaml:"use_spotify"`
	SpotifyClientID          string  `json:"spotify_client_id,omitempty" yaml:"spotify_client_id,omitempty"`
	SpotifyClientSecret      string  `json:"spotify_client_secret,omitempty" yaml:"spotify_client_secret,omitempty"`
	SpotifyMarket            string  `json:"spotify_market,omitempty" yaml:"spotify_market,omitempty"`
	SpotifyRequestsPerSecond float64 `json:"spotify_requests_per_second" yaml:"spotify_requests_per_second"`
	TokenPoolSize            int     `json:"token_pool_size" yaml:"token_pool_size"`
	SampleSize               int     `json:"sample_size" yaml:"sample_size"`
	// Seed drives sampling and estimation. 0 picks a time-based seed.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Storage
	DataDir          string `json:"data_dir" yaml:"data_dir"`
	ExportDir        string `json:"export_dir" yaml:"export_dir"`
	ExportPrefix     string `json:"export_prefix" yaml:"export_prefix"`
	DocumentsPerFile int    `json:"documents_per_file" yaml:"documents_per_file"`
	DatasetVersion   string `json:"dataset_version" yaml:"dataset_version"`
	DBPath           string `json:"db_path" yaml:"db_path"`
	Collection       string `json:"collection" yaml:"collection"`
	FullRefresh      bool   `json:"full_refresh" yaml:"full_refresh"`

	// Monitoring
	MonitorInterval   float64 `json:"monitor_interval" yaml:"monitor_interval"`
	ExpectedDocuments int64   `json:"expected_documents" yaml:"expected_documents"`
	LogLevel          string  `json:"log_level" yaml:"log_level"`
	LogFormat         string  `json:"log_format" yaml:"log_format"`

	// Playlist settings
	CreatePlaylist bool   `json:"create_playlist" yaml:"create_playlist"`
	PlaylistFormat string `json:"playlist_format" yaml:"playlist_format"` // m3u, pls, wpl
	M3UExtended    bool   `json:"m3u_extended" yaml:"m3u_extended"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		BaseURL:            "https://www.letras.com",
		GenresFile:         "genres.txt",
		MaxArtistsPerGenre: 50,
		MaxSongsPerArtist:  10,

		ArtistWorkers: 8,
		SongWorkers:   6,
		EnrichWorkers: 48,
		BatchSize:     1000,
		ItemTimeout:   30,

		ScrapeInterval:  0.5,
		SpotifyInterval: 0.1,
		MaxRetries:      3,
		RetryCooldown:   0.2,
		RetryExponent:   4.0,
		MaxRetryAfter:   10,

		UseSpotify:    true,
		TokenPoolSize: 10,

		DataDir:          "data",
		ExportDir:        "export",
		ExportPrefix:     "songs",
		DocumentsPerFile: 5000,
		DatasetVersion:   "v4.1",
		DBPath:           "lyrics.db",
		Collection:       "songs",

		MonitorInterval: 30,
		LogLevel:        "info",
		LogFormat:       "console",

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
		M3UExtended:    true,
	}
}

// Load reads settings from a JSON file, or YAML when the extension is
// .yaml or .yml. An empty path or a missing file yields the defaults.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to path in the format implied by its extension.
func (s *Settings) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return ioutils.WriteFileAtomic(path, data)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ApplyEnv loads envFile into the process environment when it exists
// (variables already set win) and then overrides settings from:
//
//	SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, USE_SPOTIFY,
//	MAX_WORKERS, BATCH_SIZE, RATE_LIMIT_DELAY, SAMPLE_SIZE,
//	COLLECTION_NAME, LYRICS_DB_PATH, SPANISH_ONLY, SEED
func (s *Settings) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv("SPOTIFY_CLIENT_ID"); ok {
		s.SpotifyClientID = v
	}
	if v, ok := os.LookupEnv("SPOTIFY_CLIENT_SECRET"); ok {
		s.SpotifyClientSecret = v
	}
	if v, ok := os.LookupEnv("COLLECTION_NAME"); ok {
		s.Collection = v
	}
	if v, ok := os.LookupEnv("LYRICS_DB_PATH"); ok {
		s.DBPath = v
	}
	if v, ok := os.LookupEnv("USE_SPOTIFY"); ok {
		s.UseSpotify = strings.EqualFold(v, "true")
	}
	if v, ok := os.LookupEnv("SPANISH_ONLY"); ok {
		s.SpanishOnly = strings.EqualFold(v, "true")
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_WORKERS", &s.EnrichWorkers},
		{"BATCH_SIZE", &s.BatchSize},
		{"SAMPLE_SIZE", &s.SampleSize},
	}
	for _, e := range ints {
		v, ok := os.LookupEnv(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v, ok := os.LookupEnv("RATE_LIMIT_DELAY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_DELAY: %w", err)
		}
		s.SpotifyInterval = f
	}

	if v, ok := os.LookupEnv("SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SEED: %w", err)
		}
		s.Seed = n
	}

	return nil
}

// Validate reports the first setting that cannot be used.
func (s *Settings) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"artist_workers", s.ArtistWorkers},
		{"song_workers", s.SongWorkers},
		{"enrich_workers", s.EnrichWorkers},
		{"batch_size", s.BatchSize},
		{"documents_per_file", s.DocumentsPerFile},
		{"max_retries", s.MaxRetries},
		{"token_pool_size", s.TokenPoolSize},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.v)
		}
	}

	switch {
	case s.ScrapeInterval < 0 || s.SpotifyInterval < 0:
		return errors.New("rate limit intervals must not be negative")
	case s.RetryExponent < 1:
		return fmt.Errorf("retry_exponent must be at least 1, got %g", s.RetryExponent)
	case s.SampleSize < 0:
		return fmt.Errorf("sample_size must not be negative, got %d", s.SampleSize)
	case s.MonitorInterval <= 0:
		return fmt.Errorf("monitor_interval must be positive, got %g", s.MonitorInterval)
	case s.BaseURL == "":
		return errors.New("base_url is required")
	case s.Collection == "":
		return errors.New("collection is required")
	}

	switch strings.ToLower(s.PlaylistFormat) {
	case "m3u", "pls", "wpl":
	default:
		return fmt.Errorf("playlist_format %q: want m3u, pls or wpl", s.PlaylistFormat)
	}

	return nil
}

// HasCredentials reports whether both catalog credentials are set.
func (s *Settings) HasCredentials() bool {
	return s.SpotifyClientID != "" && s.SpotifyClientSecret != ""
}

// Seconds converts a float-seconds setting to a duration.
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// LoadGenres reads one genre slug per line, skipping blank lines.
func LoadGenres(path string) ([]string, error) {
	return loadLines(path)
}

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, sc.Err()
}

// ResolveGenres returns Genres when set, otherwise the contents of
// GenresFile.
func (s *Settings) ResolveGenres() ([]string, error) {
	if len(s.Genres) > 0 {
		return s.Genres, nil
	}
	if s.GenresFile == "" {
		return nil, errors.New("no genres configured")
	}
	return LoadGenres(s.GenresFile)
}

// SpanishFilter builds the language filter from the built-in lists and the
// optional extension files.
func (s *Settings) SpanishFilter() (*cleaner.SpanishFilter, error) {
	var artists, genres []string
	if s.SpanishArtistsFile != "" {
		l, err := loadLines(s.SpanishArtistsFile)
		if err != nil {
			return nil, fmt.Errorf("spanish artists: %w", err)
		}
		artists = l
	}
	if s.SpanishGenresFile != "" {
		l, err := loadLines(s.SpanishGenresFile)
		if err != nil {
			return nil, fmt.Errorf("spanish genres: %w", err)
		}
		genres = l
	}
	return cleaner.NewSpanishFilter(artists, genres), nil
}

// RunSeed returns Seed, or a seed derived from now when Seed is 0.
func (s *Settings) RunSeed(now time.Time) int64 {
	if s.Seed != 0 {
		return s.Seed
	}
	return now.UnixNano()
}

// CheckpointPath returns the path of a named checkpoint under DataDir.
func (s *Settings) CheckpointPath(name string) string {
	return filepath.Join(s.DataDir, name+".msgpack")
}
