package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/handiism/lyrics-harvester/internal/config"
	"github.com/handiism/lyrics-harvester/internal/export"
	httpclient "github.com/handiism/lyrics-harvester/internal/http"
	"github.com/handiism/lyrics-harvester/internal/letras"
	"github.com/handiism/lyrics-harvester/internal/logging"
	"github.com/handiism/lyrics-harvester/internal/metrics"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/handiism/lyrics-harvester/internal/pipeline"
	"github.com/handiism/lyrics-harvester/internal/ratelimit"
	"github.com/handiism/lyrics-harvester/internal/retry"
	"github.com/handiism/lyrics-harvester/internal/sink"
	"github.com/handiism/lyrics-harvester/internal/spotify"
)

const (
	exitOK        = 0
	exitError     = 1
	exitCancelled = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	// Command line flags
	var (
		configFlag      = flag.String("config", "", "Path to config file (JSON or YAML)")
		envFlag         = flag.String("env", ".env", "Path to .env file")
		stageFlag       = flag.String("stage", "all", "Stage to run: all, discover, scrape, enrich, load")
		genresFlag      = flag.String("genres", "", "Comma-separated genres (overrides config and genres file)")
		sampleFlag      = flag.Int("sample", -1, "Enrich a random sample of N songs (0 = all)")
		fullRefreshFlag = flag.Bool("full-refresh", false, "Drop the collection before loading")
		noSpotifyFlag   = flag.Bool("no-spotify", false, "Skip catalog lookups and only estimate")
		playlistFlag    = flag.Bool("playlist", false, "Create suitability playlists on export")
		spanishFlag     = flag.Bool("spanish-only", false, "Keep only artists that probably sing in Spanish")
		seedFlag        = flag.Int64("seed", 0, "Seed for sampling and estimation (0 = config or time-based)")
		verboseFlag     = flag.Bool("verbose", false, "Show verbose output")
		metricsFlag     = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	)
	flag.Parse()

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitError
	}
	if err := settings.ApplyEnv(*envFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		return exitError
	}

	// Apply flags
	if *genresFlag != "" {
		settings.Genres = splitList(*genresFlag)
	}
	if *sampleFlag >= 0 {
		settings.SampleSize = *sampleFlag
	}
	if *fullRefreshFlag {
		settings.FullRefresh = true
	}
	if *noSpotifyFlag {
		settings.UseSpotify = false
	}
	if *playlistFlag {
		settings.CreatePlaylist = true
	}
	if *spanishFlag {
		settings.SpanishOnly = true
	}
	if *seedFlag != 0 {
		settings.Seed = *seedFlag
	}
	if *verboseFlag {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return exitError
	}

	log, err := logging.New(settings.LogLevel, settings.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return exitError
	}
	defer log.Sync()

	runID := uuid.NewString()
	seed := settings.RunSeed(time.Now())
	log = log.With(logging.RunField(runID))
	log.Info("run_started", zap.String("stage", *stageFlag), zap.Int64("seed", seed))

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	m := metrics.New()
	if *metricsFlag != "" {
		go serveMetrics(*metricsFlag, m, log)
	}

	hc := httpclient.NewClient(userAgent(settings)...)
	deps := pipeline.Deps{
		Scraper: letras.NewScraper(settings.BaseURL, hc,
			ratelimit.New(config.Seconds(settings.ScrapeInterval)), scrapePolicy(settings), m),
		Metrics: m,
		Logger:  log,
		RunID:   runID,
		Bars:    os.Stderr,
		Seed:    seed,
	}

	if settings.SpanishOnly {
		filter, err := settings.SpanishFilter()
		if err != nil {
			log.Error("language_filter_failed", zap.Error(err))
			return exitError
		}
		deps.Filter = filter
	}

	if settings.UseSpotify {
		if settings.HasCredentials() {
			deps.Catalog = newCatalog(ctx, settings, m, log)
		} else {
			log.Warn("spotify_disabled", zap.String("reason", "missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET"))
		}
	}

	manager := pipeline.NewManager(settings, deps, progressPrinter(*verboseFlag))

	var db *sink.Sink
	if *stageFlag == "all" || *stageFlag == "load" {
		db, err = sink.Open(ctx, settings.DBPath, settings.Collection)
		if err != nil {
			log.Error("sink_unreachable", zap.Error(err))
			return exitError
		}
		defer db.Close()
	}

	err = runStage(ctx, *stageFlag, settings, manager, db)
	switch {
	case err == nil:
		log.Info("run_completed")
		return exitOK
	case ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "Run cancelled.")
		return exitCancelled
	default:
		log.Error("run_failed", zap.Error(err))
		return exitError
	}
}

func runStage(ctx context.Context, stage string, settings *config.Settings, manager *pipeline.Manager, db *sink.Sink) error {
	var reports []pipeline.StageReport
	defer func() {
		for _, r := range reports {
			fmt.Println(r)
		}
	}()

	switch stage {
	case "all":
		genres, err := settings.ResolveGenres()
		if err != nil {
			return err
		}
		reports, err = manager.Run(ctx, genres, db)
		return err

	case "discover", "scrape":
		genres, err := settings.ResolveGenres()
		if err != nil {
			return err
		}
		index, rep, err := manager.DiscoverArtists(ctx, genres)
		reports = append(reports, rep)
		if err != nil || stage == "discover" {
			return err
		}
		_, rep, err = manager.Scrape(ctx, index)
		reports = append(reports, rep)
		return err

	case "enrich":
		lyrics, err := manager.SavedLyrics()
		if err != nil {
			return err
		}
		songs, rep, err := manager.Enrich(ctx, lyrics)
		reports = append(reports, rep)
		if err != nil {
			return err
		}
		_, rep, err = manager.Export(songs)
		reports = append(reports, rep)
		return err

	case "load":
		docs, _, err := export.ReadChunks[model.Song](settings.ExportDir)
		if err != nil {
			return err
		}
		_, rep, err := manager.Load(ctx, db, docs)
		reports = append(reports, rep)
		return err

	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func newCatalog(ctx context.Context, settings *config.Settings, m *metrics.Metrics, log *zap.Logger) *spotify.Client {
	hc := httpclient.NewClient(append(userAgent(settings), httpclient.WithTimeout(10*time.Second))...)
	source := &spotify.ClientCredentials{
		ClientID:     settings.SpotifyClientID,
		ClientSecret: settings.SpotifyClientSecret,
		HTTP:         hc,
	}
	pool := spotify.NewTokenPool(source, settings.TokenPoolSize, m)
	if err := pool.Warm(ctx, 1); err != nil {
		log.Warn("token_warmup_failed", zap.Error(err))
	}

	cfg := spotify.Config{
		Market:        settings.SpotifyMarket,
		MaxAttempts:   settings.MaxRetries,
		MaxRetryAfter: config.Seconds(settings.MaxRetryAfter),
		Cooldown:      config.Seconds(settings.RetryCooldown),
		Exponent:      settings.RetryExponent,
	}
	if settings.SpotifyRequestsPerSecond > 0 {
		cfg.Budget = rate.NewLimiter(rate.Limit(settings.SpotifyRequestsPerSecond), 1)
	}
	return spotify.NewClient(cfg, hc, pool, ratelimit.New(config.Seconds(settings.SpotifyInterval)), m)
}

func scrapePolicy(settings *config.Settings) retry.Policy {
	return retry.Policy{
		MaxAttempts: settings.MaxRetries,
		Backoff: retry.Exponential(config.Seconds(settings.RetryCooldown), settings.RetryExponent,
			config.Seconds(settings.MaxRetryAfter)),
		MaxWait: config.Seconds(settings.MaxRetryAfter),
	}
}

func userAgent(settings *config.Settings) []httpclient.Option {
	if settings.UserAgent == "" {
		return nil
	}
	return []httpclient.Option{httpclient.WithUserAgent(settings.UserAgent)}
}

func serveMetrics(addr string, m *metrics.Metrics, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	log.Info("metrics_listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics_server_failed", zap.Error(err))
	}
}

func progressPrinter(verbose bool) func(pipeline.ProgressEvent) {
	return func(event pipeline.ProgressEvent) {
		if event.Level == pipeline.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case pipeline.LevelError:
			prefix = "❌ "
		case pipeline.LevelWarning:
			prefix = "⚠️  "
		case pipeline.LevelSuccess:
			prefix = "✅ "
		case pipeline.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
