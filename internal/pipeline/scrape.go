package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/handiism/lyrics-harvester/internal/checkpoint"
	"github.com/handiism/lyrics-harvester/internal/config"
	"github.com/handiism/lyrics-harvester/internal/fetch"
	"github.com/handiism/lyrics-harvester/internal/model"
)

// ArtistIndex maps a genre to its ranked artist paths.
type ArtistIndex map[string][]string

// SongIndex maps genre and artist path to the artist's song paths.
type SongIndex map[string]map[string][]string

// Checkpoint names under the data directory.
const (
	artistCheckpoint = "artists_by_genre"
	songCheckpoint   = "songs_by_artist"
	lyricsCheckpoint = "lyrics_by_genre"
	enrichCheckpoint = "enriched_songs"
)

// DiscoverArtists fetches the ranked artists of each genre. Genres already
// present in the saved index are not fetched again.
func (m *Manager) DiscoverArtists(ctx context.Context, genres []string) (ArtistIndex, StageReport, error) {
	start := time.Now()
	rep := StageReport{Stage: StageDiscover, Batches: 1}

	path := m.settings.CheckpointPath(artistCheckpoint)
	index := ArtistIndex{}
	if _, err := checkpoint.LoadValue(path, &index); err != nil {
		return nil, rep, err
	}

	var pending []string
	for _, g := range genres {
		if _, ok := index[g]; !ok {
			pending = append(pending, g)
		}
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Discovering artists for %d genres (%d already indexed)", len(pending), len(genres)-len(pending)), Level: LevelInfo})

	items := model.NewItems(pending, func(g string) (string, string, string) { return g, "", g })
	bar := m.newBar(len(items), "1/4", "Discovering artists...")

	results := fetch.Run(ctx, items, func(ctx context.Context, it model.WorkItem[string]) ([]string, error) {
		return m.scraper.GenreArtists(ctx, it.Value)
	}, m.fetchOptions(m.settings.ArtistWorkers))

	for r := range results {
		record(m, StageDiscover, &rep.Stats, r)
		if r.OK() {
			index[r.Item.Value] = truncate(r.Payload, m.settings.MaxArtistsPerGenre)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d artists for %s", len(index[r.Item.Value]), r.Item.Value), Level: LevelVerbose})
		}
		bar.Add(1)
	}
	bar.Finish()

	if err := checkpoint.SaveValue(path, index); err != nil {
		return index, rep, fmt.Errorf("save artist index: %w", err)
	}

	m.finish(&rep, start)
	return index, rep, ctx.Err()
}

// Scrape lists the top songs of every indexed artist and fetches their
// lyrics in batches. The lyrics checkpoint is saved after each batch and
// songs already in it are skipped.
func (m *Manager) Scrape(ctx context.Context, index ArtistIndex) (*checkpoint.Store[model.Lyrics], StageReport, error) {
	start := time.Now()
	rep := StageReport{Stage: StageScrape}

	store, err := m.SavedLyrics()
	if err != nil {
		return nil, rep, err
	}

	songs, err := m.listSongs(ctx, index)
	if err != nil {
		return store, rep, err
	}

	var all []model.WorkItem[string]
	for _, genre := range sortedKeys(songs) {
		for _, artist := range sortedKeys(songs[genre]) {
			for _, path := range songs[genre][artist] {
				all = append(all, model.WorkItem[string]{Seq: len(all), Category: genre, Parent: artist, Key: path, Value: path})
			}
		}
	}
	pending := checkpoint.Pending(store, all)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Scraping %d songs (%d already saved)", len(pending), len(all)-len(pending)), Level: LevelInfo})

	bar := m.newBar(len(pending), "2/4", "Downloading lyrics...")
	batches := model.Batches(pending, m.settings.BatchSize)
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}

		results := fetch.Run(ctx, batch, func(ctx context.Context, it model.WorkItem[string]) (model.Lyrics, error) {
			l, err := m.scraper.Lyrics(ctx, it.Value)
			l.Genre = it.Category
			return l, err
		}, m.fetchOptions(m.settings.SongWorkers))

		var batchStats model.AggregateStats
		for r := range results {
			record(m, StageScrape, &batchStats, r)
			if r.OK() {
				store.Put(r.Item.Category, r.Item.Parent, r.Item.Key, r.Payload)
			}
			bar.Add(1)
		}
		rep.Stats.Merge(batchStats)
		rep.Batches++

		if err := store.Save(); err != nil {
			return store, rep, fmt.Errorf("save lyrics checkpoint: %w", err)
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Batch %d/%d: %s", i+1, len(batches), batchStats), Level: LevelInfo})
	}
	bar.Finish()

	m.finish(&rep, start)
	return store, rep, ctx.Err()
}

// SavedLyrics loads the lyrics checkpoint left by earlier Scrape runs.
func (m *Manager) SavedLyrics() (*checkpoint.Store[model.Lyrics], error) {
	store := checkpoint.New[model.Lyrics](m.settings.CheckpointPath(lyricsCheckpoint))
	return store, store.Load()
}

// listSongs returns the song paths of every artist in index, fetching only
// artists missing from the saved song index.
func (m *Manager) listSongs(ctx context.Context, index ArtistIndex) (SongIndex, error) {
	path := m.settings.CheckpointPath(songCheckpoint)
	songs := SongIndex{}
	if _, err := checkpoint.LoadValue(path, &songs); err != nil {
		return nil, err
	}

	var items []model.WorkItem[string]
	for _, genre := range sortedKeys(index) {
		for _, artist := range index[genre] {
			if _, ok := songs[genre][artist]; ok {
				continue
			}
			items = append(items, model.WorkItem[string]{Seq: len(items), Category: genre, Key: artist, Value: artist})
		}
	}
	if len(items) == 0 {
		return songs, nil
	}

	bar := m.newBar(len(items), "2/4", "Listing songs...")
	results := fetch.Run(ctx, items, func(ctx context.Context, it model.WorkItem[string]) ([]string, error) {
		return m.scraper.ArtistSongs(ctx, it.Value)
	}, m.fetchOptions(m.settings.ArtistWorkers))

	var stats model.AggregateStats
	for r := range results {
		record(m, StageScrape, &stats, r)
		if r.OK() {
			if songs[r.Item.Category] == nil {
				songs[r.Item.Category] = map[string][]string{}
			}
			songs[r.Item.Category][r.Item.Value] = truncate(r.Payload, m.settings.MaxSongsPerArtist)
		}
		bar.Add(1)
	}
	bar.Finish()

	m.log.Info("artists_listed",
		zap.Int("found", stats.Found),
		zap.Int("not_found", stats.NotFound),
		zap.Int("errors", stats.Errors),
	)

	if err := checkpoint.SaveValue(path, songs); err != nil {
		return songs, fmt.Errorf("save song index: %w", err)
	}
	return songs, nil
}

func (m *Manager) fetchOptions(workers int) fetch.Options {
	return fetch.Options{Workers: workers, ItemTimeout: config.Seconds(m.settings.ItemTimeout)}
}

func truncate(s []string, n int) []string {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
