package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/handiism/lyrics-harvester/internal/checkpoint"
	"github.com/handiism/lyrics-harvester/internal/cleaner"
	"github.com/handiism/lyrics-harvester/internal/config"
	"github.com/handiism/lyrics-harvester/internal/export"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/handiism/lyrics-harvester/internal/sink"
)

const lyricsText = "primeiro verso da canção\nsegundo verso da canção\n\nrefrão"

type fakeScraper struct {
	mu      sync.Mutex
	artists map[string][]string
	songs   map[string][]string
	lyrics  map[string]string
	fail    map[string]error
	calls   map[string]int
}

func newFakeScraper() *fakeScraper {
	return &fakeScraper{
		artists: map[string][]string{},
		songs:   map[string][]string{},
		lyrics:  map[string]string{},
		fail:    map[string]error{},
		calls:   map[string]int{},
	}
}

// addArtist registers an artist with n songs in genre.
func (f *fakeScraper) addArtist(genre, artist string, n int) []string {
	f.artists[genre] = append(f.artists[genre], artist)
	var paths []string
	for i := 1; i <= n; i++ {
		p := fmt.Sprintf("%ssong-%d/", artist, i)
		paths = append(paths, p)
		f.lyrics[p] = lyricsText
	}
	f.songs[artist] = paths
	return paths
}

func (f *fakeScraper) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	return f.calls[key]
}

func (f *fakeScraper) total(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, v := range f.calls {
		if strings.HasPrefix(k, prefix) {
			n += v
		}
	}
	return n
}

func (f *fakeScraper) GenreArtists(_ context.Context, genre string) ([]string, error) {
	f.count("genre:" + genre)
	a, ok := f.artists[genre]
	if !ok {
		return nil, model.ErrNotFound
	}
	return a, nil
}

func (f *fakeScraper) ArtistSongs(_ context.Context, artist string) ([]string, error) {
	f.count("artist:" + artist)
	return f.songs[artist], nil
}

func (f *fakeScraper) Lyrics(_ context.Context, path string) (model.Lyrics, error) {
	f.count("song:" + path)
	f.mu.Lock()
	err := f.fail[path]
	f.mu.Unlock()
	if err != nil {
		return model.Lyrics{}, err
	}
	return model.Lyrics{Text: f.lyrics[path], Composer: "Fulano"}, nil
}

type fakeCatalog struct {
	mu    sync.Mutex
	found map[string]bool
	fail  map[string]error
	calls int
}

func (c *fakeCatalog) Lookup(_ context.Context, artist, title string) (*model.SpotifyTrack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := c.fail[title]; err != nil {
		return nil, err
	}
	if !c.found[title] {
		return nil, fmt.Errorf("%s - %s: %w", artist, title, model.ErrNotFound)
	}
	return &model.SpotifyTrack{ID: "id-" + title, URL: "https://open.spotify.com/track/" + title, Name: title, Popularity: 80}, nil
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	s := config.DefaultSettings()
	s.DataDir = filepath.Join(dir, "data")
	s.ExportDir = filepath.Join(dir, "export")
	s.BatchSize = 3
	s.ArtistWorkers = 2
	s.SongWorkers = 2
	s.EnrichWorkers = 2
	s.ItemTimeout = 5
	return s
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	settings := testSettings(t)
	settings.CreatePlaylist = true

	scraper := newFakeScraper()
	scraper.addArtist("rock", "/banda-a/", 2)
	scraper.addArtist("rock", "/banda-b/", 1)
	catalog := &fakeCatalog{found: map[string]bool{"Song 1": true}}

	db, err := sink.Open(ctx, filepath.Join(t.TempDir(), "lyrics.db"), "songs")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var events []ProgressEvent
	m := NewManager(settings, Deps{Scraper: scraper, Catalog: catalog, RunID: "run-1", Seed: 1}, func(e ProgressEvent) {
		events = append(events, e)
	})

	reports, err := m.Run(ctx, []string{"rock"}, db)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(reports) != 5 {
		t.Fatalf("got %d reports, want 5", len(reports))
	}

	enrich := reports[2]
	if enrich.Stats.Found != 2 || enrich.Stats.NotFound != 1 {
		t.Errorf("enrich stats = %s, want found=2 not_found=1", enrich.Stats)
	}

	n, err := db.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3", n, err)
	}

	docs, manifest, err := export.ReadChunks[model.Song](settings.ExportDir)
	if err != nil {
		t.Fatalf("ReadChunks() error: %v", err)
	}
	if manifest.RunID != "run-1" || manifest.Source != Source {
		t.Errorf("manifest = %+v", manifest)
	}
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			t.Errorf("exported invalid document: %v", err)
		}
		if !d.IsEstimated || d.Features == nil || !d.Features.Estimated {
			t.Errorf("%s: features must be flagged as estimated", d.UniqueID)
		}
		if !d.SpotifyFound && d.Popularity != nil {
			t.Errorf("%s: popularity fabricated for unmatched song", d.UniqueID)
		}
		if d.Artist == "" || d.Title == "" || d.LyricsWordCount == 0 {
			t.Errorf("incomplete document %+v", d)
		}
	}

	if _, err := os.Stat(filepath.Join(settings.ExportDir, "playlists")); err != nil {
		t.Errorf("playlists directory missing: %v", err)
	}
	if len(events) == 0 {
		t.Error("no progress events reported")
	}
}

func TestScrape_ResumeSkipsSavedSongs(t *testing.T) {
	ctx := context.Background()
	settings := testSettings(t)

	scraper := newFakeScraper()
	paths := scraper.addArtist("rock", "/banda/", 10)
	for _, p := range paths[6:] {
		scraper.fail[p] = fmt.Errorf("reset: %w", model.ErrNetwork)
	}
	index := ArtistIndex{"rock": {"/banda/"}}

	first := NewManager(settings, Deps{Scraper: scraper}, nil)
	store, rep, err := first.Scrape(ctx, index)
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 6 || rep.Stats.Errors != 4 {
		t.Fatalf("first run: saved %d, stats %s", store.Len(), rep.Stats)
	}

	rerun := newFakeScraper()
	rerun.addArtist("rock", "/banda/", 10)
	second := NewManager(settings, Deps{Scraper: rerun}, nil)
	store, _, err = second.Scrape(ctx, index)
	if err != nil {
		t.Fatal(err)
	}

	if got := rerun.total("song:"); got != 4 {
		t.Errorf("second run made %d lyrics calls, want 4", got)
	}
	if got := rerun.total("artist:"); got != 0 {
		t.Errorf("second run listed songs %d times, want 0", got)
	}
	if store.Len() != 10 {
		t.Errorf("store holds %d songs, want 10", store.Len())
	}
}

func TestDiscoverArtists(t *testing.T) {
	ctx := context.Background()
	settings := testSettings(t)
	settings.MaxArtistsPerGenre = 1

	scraper := newFakeScraper()
	scraper.addArtist("rock", "/a/", 1)
	scraper.addArtist("rock", "/b/", 1)

	m := NewManager(settings, Deps{Scraper: scraper}, nil)
	index, rep, err := m.DiscoverArtists(ctx, []string{"rock", "jazz"})
	if err != nil {
		t.Fatal(err)
	}
	if len(index["rock"]) != 1 || rep.Stats.NotFound != 1 {
		t.Errorf("index = %v, stats = %s", index, rep.Stats)
	}

	if _, _, err := m.DiscoverArtists(ctx, []string{"rock"}); err != nil {
		t.Fatal(err)
	}
	if got := scraper.total("genre:rock"); got != 1 {
		t.Errorf("indexed genre fetched %d times, want 1", got)
	}
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()

	scraped := func(t *testing.T, settings *config.Settings, scraper *fakeScraper) *checkpoint.Store[model.Lyrics] {
		t.Helper()
		store, _, err := NewManager(settings, Deps{Scraper: scraper}, nil).Scrape(ctx, ArtistIndex{"rock": {"/banda/"}})
		if err != nil {
			t.Fatal(err)
		}
		return store
	}

	t.Run("malformed lyrics are counted separately", func(t *testing.T) {
		settings := testSettings(t)
		scraper := newFakeScraper()
		paths := scraper.addArtist("rock", "/banda/", 3)
		scraper.lyrics[paths[0]] = "curta"
		store := scraped(t, settings, scraper)

		songs, rep, err := NewManager(settings, Deps{}, nil).Enrich(ctx, store)
		if err != nil {
			t.Fatal(err)
		}
		if rep.Stats.Malformed != 1 || len(songs) != 2 {
			t.Errorf("malformed=%d songs=%d", rep.Stats.Malformed, len(songs))
		}
	})

	t.Run("failed lookups are retried on the next run", func(t *testing.T) {
		settings := testSettings(t)
		scraper := newFakeScraper()
		scraper.addArtist("rock", "/banda/", 3)
		store := scraped(t, settings, scraper)

		flaky := &fakeCatalog{
			found: map[string]bool{"Song 1": true, "Song 2": true, "Song 3": true},
			fail:  map[string]error{"Song 2": fmt.Errorf("slow: %w", model.ErrTimeout)},
		}
		songs, rep, err := NewManager(settings, Deps{Catalog: flaky}, nil).Enrich(ctx, store)
		if err != nil {
			t.Fatal(err)
		}
		if rep.Stats.Found != 2 || rep.Stats.Errors != 1 {
			t.Errorf("stats = %s", rep.Stats)
		}
		var failed *model.Song
		for i := range songs {
			if songs[i].EnrichError != "" {
				failed = &songs[i]
			}
		}
		if failed == nil || failed.SpotifyFound || !failed.IsEstimated {
			t.Fatalf("failed song = %+v", failed)
		}

		healthy := &fakeCatalog{found: flaky.found}
		songs, _, err = NewManager(settings, Deps{Catalog: healthy}, nil).Enrich(ctx, store)
		if err != nil {
			t.Fatal(err)
		}
		if healthy.calls != 1 {
			t.Errorf("second run made %d lookups, want 1", healthy.calls)
		}
		for _, s := range songs {
			if !s.SpotifyFound {
				t.Errorf("%s not matched after retry", s.UniqueID)
			}
		}
	})

	t.Run("language filter drops other artists", func(t *testing.T) {
		settings := testSettings(t)
		scraper := newFakeScraper()
		legiao := scraper.addArtist("rock", "/legiao-urbana/", 2)
		prisioneros := scraper.addArtist("rock", "/los-prisioneros/", 3)
		scraper.lyrics[legiao[0]] = "curta"
		scraper.lyrics[prisioneros[0]] = "curta"

		index := ArtistIndex{"rock": {"/legiao-urbana/", "/los-prisioneros/"}}
		store, _, err := NewManager(settings, Deps{Scraper: scraper}, nil).Scrape(ctx, index)
		if err != nil {
			t.Fatal(err)
		}

		deps := Deps{Filter: cleaner.NewSpanishFilter(nil, nil)}
		songs, rep, err := NewManager(settings, deps, nil).Enrich(ctx, store)
		if err != nil {
			t.Fatal(err)
		}
		if rep.Stats.Filtered != 2 || rep.Stats.Malformed != 1 || len(songs) != 2 {
			t.Errorf("filtered=%d malformed=%d songs=%d", rep.Stats.Filtered, rep.Stats.Malformed, len(songs))
		}
		for _, s := range songs {
			if s.ArtistPath != "/los-prisioneros/" {
				t.Errorf("unexpected artist %s", s.ArtistPath)
			}
		}
	})

	t.Run("sample size limits the songs", func(t *testing.T) {
		settings := testSettings(t)
		settings.SampleSize = 2
		scraper := newFakeScraper()
		scraper.addArtist("rock", "/banda/", 5)
		store := scraped(t, settings, scraper)

		songs, _, err := NewManager(settings, Deps{}, nil).Enrich(ctx, store)
		if err != nil {
			t.Fatal(err)
		}
		if len(songs) != 2 {
			t.Errorf("got %d songs, want 2", len(songs))
		}
	})

	t.Run("same seed picks the same sample", func(t *testing.T) {
		pick := func(seed int64) []string {
			settings := testSettings(t)
			settings.SampleSize = 3
			scraper := newFakeScraper()
			scraper.addArtist("rock", "/banda/", 8)
			store := scraped(t, settings, scraper)

			songs, _, err := NewManager(settings, Deps{Seed: seed}, nil).Enrich(ctx, store)
			if err != nil {
				t.Fatal(err)
			}
			var paths []string
			for _, s := range songs {
				paths = append(paths, s.SongPath)
			}
			return paths
		}

		first, second := pick(11), pick(11)
		if strings.Join(first, ",") != strings.Join(second, ",") {
			t.Errorf("samples differ: %v vs %v", first, second)
		}
	})
}

type rejectingSink struct{ fakeSinkBase }

type fakeSinkBase struct{ resets int }

func (f *fakeSinkBase) Reset(context.Context) error          { f.resets++; return nil }
func (f *fakeSinkBase) EnsureIndexes(context.Context) error  { return nil }
func (f *fakeSinkBase) Count(context.Context) (int64, error) { return 0, nil }

func (r *rejectingSink) InsertMany(_ context.Context, docs []model.Song) (sink.WriteResult, error) {
	return sink.WriteResult{Failed: len(docs), Errors: []error{errors.New("rejected")}}, nil
}

func (r *rejectingSink) UpsertMany(ctx context.Context, docs []model.Song) (sink.WriteResult, error) {
	return r.InsertMany(ctx, docs)
}

func TestLoad_NothingWritten(t *testing.T) {
	settings := testSettings(t)
	settings.FullRefresh = true
	dst := &rejectingSink{}

	docs := []model.Song{{UniqueID: "a"}, {UniqueID: "b"}}
	res, rep, err := NewManager(settings, Deps{}, nil).Load(context.Background(), dst, docs)
	if !errors.Is(err, ErrNothingWritten) {
		t.Errorf("Load() error = %v, want ErrNothingWritten", err)
	}
	if res.Failed != 2 || rep.Stats.Errors != 2 || dst.resets != 1 {
		t.Errorf("result = %+v, stats = %s, resets = %d", res, rep.Stats, dst.resets)
	}
}

func TestLoad_EmptyExport(t *testing.T) {
	settings := testSettings(t)
	dst := &rejectingSink{}

	res, rep, err := NewManager(settings, Deps{}, nil).Load(context.Background(), dst, nil)
	if !errors.Is(err, ErrNothingWritten) {
		t.Errorf("Load() error = %v, want ErrNothingWritten", err)
	}
	if res.Written != 0 || rep.Batches != 0 {
		t.Errorf("result = %+v, batches = %d", res, rep.Batches)
	}
}
