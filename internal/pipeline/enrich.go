package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/handiism/lyrics-harvester/internal/audio"
	"github.com/handiism/lyrics-harvester/internal/checkpoint"
	"github.com/handiism/lyrics-harvester/internal/cleaner"
	"github.com/handiism/lyrics-harvester/internal/fetch"
	"github.com/handiism/lyrics-harvester/internal/model"
)

// Enrich cleans and validates the scraped lyrics, looks each song up in
// the catalog and attaches flagged feature estimates.
//
// Songs whose lookup failed keep EnrichError and are not checkpointed, so a
// later run looks them up again. The returned songs follow the lyrics
// store's walk order.
func (m *Manager) Enrich(ctx context.Context, lyrics *checkpoint.Store[model.Lyrics]) ([]model.Song, StageReport, error) {
	start := time.Now()
	rep := StageReport{Stage: StageEnrich}

	songs, malformed, filtered := m.collect(lyrics)
	for range malformed {
		rep.Stats.AddMalformed()
		m.metrics.Item(StageEnrich, "malformed")
	}
	for range filtered {
		rep.Stats.AddFiltered()
		m.metrics.Item(StageEnrich, "filtered")
	}
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Collected %d valid songs, %d malformed, %d filtered", len(songs), malformed, filtered),
		Level:   LevelInfo,
	})

	songs = m.sample(songs)

	store := checkpoint.New[model.Song](m.settings.CheckpointPath(enrichCheckpoint))
	if err := store.Load(); err != nil {
		return nil, rep, err
	}

	items := model.NewItems(songs, func(s model.Song) (string, string, string) {
		return s.Genre, s.ArtistPath, s.SongPath
	})
	out := make([]model.Song, len(items))
	done := make([]bool, len(items))
	for _, it := range items {
		if s, ok := store.Get(it.Category, it.Parent, it.Key); ok {
			out[it.Seq], done[it.Seq] = s, true
		}
	}

	pending := checkpoint.Pending(store, items)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Enriching %d songs (%d already enriched)", len(pending), len(items)-len(pending)), Level: LevelInfo})

	bar := m.newBar(len(pending), "3/4", "Enriching songs...")
	batches := model.Batches(pending, m.settings.BatchSize)
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}

		var batchStats model.AggregateStats
		for _, r := range m.lookup(ctx, batch) {
			record(m, StageEnrich, &batchStats, r)
			song := m.finalize(r)
			if r.Outcome != model.OutcomeError {
				store.Put(r.Item.Category, r.Item.Parent, r.Item.Key, song)
			}
			out[r.Item.Seq], done[r.Item.Seq] = song, true
			bar.Add(1)
		}
		rep.Stats.Merge(batchStats)
		rep.Batches++

		if err := store.Save(); err != nil {
			return nil, rep, fmt.Errorf("save enrich checkpoint: %w", err)
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Batch %d/%d: %s", i+1, len(batches), batchStats), Level: LevelInfo})
	}
	bar.Finish()

	result := make([]model.Song, 0, len(out))
	for i, s := range out {
		if done[i] {
			result = append(result, s)
		}
	}

	m.finish(&rep, start)
	return result, rep, ctx.Err()
}

// collect turns the lyrics store into songs, skipping entries rejected by
// the language filter and malformed entries.
func (m *Manager) collect(lyrics *checkpoint.Store[model.Lyrics]) (songs []model.Song, malformed, filtered int) {
	_ = lyrics.Walk(func(genre, artistPath, songPath string, l model.Lyrics) error {
		if m.filter != nil && !m.filter.Match(artistPath, genre) {
			filtered++
			return nil
		}
		if err := cleaner.Validate(songPath, artistPath, l.Text); err != nil {
			malformed++
			m.log.Debug("song_rejected", zap.String("song", songPath), zap.Error(err))
			return nil
		}

		title := l.Title
		if title == "" {
			title = cleaner.TitleFromPath(songPath)
		}
		artist := cleaner.ArtistFromPath(artistPath)
		text := cleaner.Clean(l.Text)

		songs = append(songs, model.Song{
			UniqueID:        model.UniqueID(artist, title, genre),
			Genre:           genre,
			Artist:          artist,
			ArtistPath:      artistPath,
			SongPath:        songPath,
			Title:           title,
			Lyrics:          text,
			Composer:        cleaner.Clean(l.Composer),
			LyricsWordCount: cleaner.WordCount(text),
		})
		return nil
	})
	return songs, malformed, filtered
}

// sample keeps a random subset of SampleSize songs, preserving their
// relative order.
func (m *Manager) sample(songs []model.Song) []model.Song {
	n := m.settings.SampleSize
	if n <= 0 || len(songs) <= n {
		return songs
	}

	picked := m.rng.Perm(len(songs))[:n]
	sort.Ints(picked)

	out := make([]model.Song, n)
	for i, idx := range picked {
		out[i] = songs[idx]
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Sample limited to %d songs", n), Level: LevelInfo})
	return out
}

// lookup queries the catalog for a batch. Without a catalog every song is
// reported as not found.
func (m *Manager) lookup(ctx context.Context, batch []model.WorkItem[model.Song]) []model.FetchResult[model.Song, *model.SpotifyTrack] {
	if m.catalog == nil {
		results := make([]model.FetchResult[model.Song, *model.SpotifyTrack], len(batch))
		for i, it := range batch {
			results[i] = model.Missing[model.Song, *model.SpotifyTrack](it, nil, 0)
		}
		return results
	}

	var results []model.FetchResult[model.Song, *model.SpotifyTrack]
	ch := fetch.Run(ctx, batch, func(ctx context.Context, it model.WorkItem[model.Song]) (*model.SpotifyTrack, error) {
		return m.catalog.Lookup(ctx, it.Value.Artist, it.Value.Title)
	}, m.fetchOptions(m.settings.EnrichWorkers))
	for r := range ch {
		results = append(results, r)
	}
	return results
}

// finalize builds the exported document for one lookup result.
func (m *Manager) finalize(r model.FetchResult[model.Song, *model.SpotifyTrack]) model.Song {
	song := r.Item.Value

	switch r.Outcome {
	case model.OutcomeSuccess:
		song.SpotifyFound = true
		song.Spotify = r.Payload
		pop := r.Payload.Popularity
		song.Popularity = &pop
	case model.OutcomeError:
		song.EnrichError = r.Err.Error()
	}

	song.Features = m.estimator.Estimate(song.Popularity)
	song.IsEstimated = true
	song.Suitability = audio.Suitability(song.Features)
	song.ProcessedAt = m.now()
	song.Source = Source
	song.DatasetVersion = m.settings.DatasetVersion
	return song
}
