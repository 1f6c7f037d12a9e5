package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/handiism/lyrics-harvester/internal/audio"
	"github.com/handiism/lyrics-harvester/internal/config"
	"github.com/handiism/lyrics-harvester/internal/metrics"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/handiism/lyrics-harvester/internal/sink"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a pipeline progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Stage names used in reports and metrics.
const (
	StageDiscover = "discover"
	StageScrape   = "scrape"
	StageEnrich   = "enrich"
	StageExport   = "export"
	StageLoad     = "load"
)

// Source is the dataset source tag written on every document.
const Source = "server_processing_json_export"

// ErrNothingWritten is returned by Load when no document reached the sink,
// including when there was nothing to load.
var ErrNothingWritten = errors.New("no documents were written")

// StageReport summarizes one stage run.
type StageReport struct {
	Stage    string
	Stats    model.AggregateStats
	Duration time.Duration
	Batches  int
}

func (r StageReport) String() string {
	return fmt.Sprintf("%s: %s batches=%d in %s", r.Stage, r.Stats, r.Batches, r.Duration.Round(time.Millisecond))
}

// Scraper fetches pages from the lyrics site.
type Scraper interface {
	GenreArtists(ctx context.Context, genre string) ([]string, error)
	ArtistSongs(ctx context.Context, artistPath string) ([]string, error)
	Lyrics(ctx context.Context, songPath string) (model.Lyrics, error)
}

// Catalog looks up tracks by artist and title.
type Catalog interface {
	Lookup(ctx context.Context, artist, title string) (*model.SpotifyTrack, error)
}

// LanguageFilter decides whether an artist's songs are kept.
type LanguageFilter interface {
	Match(artistPath, genre string) bool
}

// Sink receives exported documents.
type Sink interface {
	Reset(ctx context.Context) error
	InsertMany(ctx context.Context, docs []model.Song) (sink.WriteResult, error)
	UpsertMany(ctx context.Context, docs []model.Song) (sink.WriteResult, error)
	EnsureIndexes(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// Deps are the collaborators of a Manager. Scraper is required for the
// discover and scrape stages. A nil Catalog estimates every song and a nil
// Filter keeps every song.
type Deps struct {
	Scraper   Scraper
	Catalog   Catalog
	Filter    LanguageFilter
	Estimator *audio.Estimator
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	RunID     string
	// Bars receives progress bars. Nil hides them.
	Bars io.Writer
	// Seed drives sampling and estimation.
	Seed int64
}

// Manager coordinates the pipeline stages.
type Manager struct {
	settings  *config.Settings
	scraper   Scraper
	catalog   Catalog
	filter    LanguageFilter
	estimator *audio.Estimator
	playlist  *audio.PlaylistCreator
	metrics   *metrics.Metrics
	log       *zap.Logger
	runID     string
	bars      io.Writer
	rng       *rand.Rand
	now       func() time.Time

	onProgress func(ProgressEvent)
}

// NewManager creates a new pipeline Manager.
func NewManager(settings *config.Settings, deps Deps, onProgress func(ProgressEvent)) *Manager {
	if deps.Estimator == nil {
		deps.Estimator = audio.NewEstimator(deps.Seed)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Bars == nil {
		deps.Bars = io.Discard
	}
	if deps.RunID != "" {
		deps.Logger = deps.Logger.With(zap.String("run_id", deps.RunID))
	}

	return &Manager{
		settings:   settings,
		scraper:    deps.Scraper,
		catalog:    deps.Catalog,
		filter:     deps.Filter,
		estimator:  deps.Estimator,
		playlist:   audio.NewPlaylistCreator(audio.ParsePlaylistFormat(settings.PlaylistFormat), settings.M3UExtended),
		metrics:    deps.Metrics,
		log:        deps.Logger,
		runID:      deps.RunID,
		bars:       deps.Bars,
		rng:        rand.New(rand.NewSource(deps.Seed)),
		now:        time.Now,
		onProgress: onProgress,
	}
}

// Run executes every stage in order and loads the result into dst when it
// is not nil.
func (m *Manager) Run(ctx context.Context, genres []string, dst Sink) ([]StageReport, error) {
	var reports []StageReport

	index, rep, err := m.DiscoverArtists(ctx, genres)
	reports = append(reports, rep)
	if err != nil {
		return reports, err
	}

	lyrics, rep, err := m.Scrape(ctx, index)
	reports = append(reports, rep)
	if err != nil {
		return reports, err
	}

	songs, rep, err := m.Enrich(ctx, lyrics)
	reports = append(reports, rep)
	if err != nil {
		return reports, err
	}

	_, rep, err = m.Export(songs)
	reports = append(reports, rep)
	if err != nil {
		return reports, err
	}

	if dst != nil {
		_, rep, err = m.Load(ctx, dst, songs)
		reports = append(reports, rep)
	}
	return reports, err
}

func (m *Manager) newBar(total int, step, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(m.bars),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]["+step+"][reset] "+desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func (m *Manager) finish(rep *StageReport, start time.Time) {
	rep.Duration = time.Since(start)
	m.metrics.StageDone(rep.Stage, rep.Duration.Seconds())
	m.log.Info("stage_completed",
		zap.String("stage", rep.Stage),
		zap.Int("found", rep.Stats.Found),
		zap.Int("not_found", rep.Stats.NotFound),
		zap.Int("errors", rep.Stats.Errors),
		zap.Int("malformed", rep.Stats.Malformed),
		zap.Int("batches", rep.Batches),
		zap.Duration("duration", rep.Duration),
	)
	m.progress(ProgressEvent{Message: rep.String(), Level: LevelSuccess})
}

// record counts a fetch result in stats and metrics and reports failures.
func record[T, P any](m *Manager, stage string, stats *model.AggregateStats, r model.FetchResult[T, P]) {
	model.Record(stats, r)
	m.metrics.Item(stage, r.Outcome.String())

	switch r.Outcome {
	case model.OutcomeNotFound:
		m.progress(ProgressEvent{Message: fmt.Sprintf("Not found: %s", r.Item.Key), Level: LevelVerbose})
	case model.OutcomeError:
		m.log.Warn("item_failed",
			zap.String("stage", stage),
			zap.String("key", r.Item.Key),
			zap.String("kind", model.KindOf(r.Err).String()),
			zap.Error(r.Err),
		)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error on %s: %v", r.Item.Key, r.Err), Level: LevelError})
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
