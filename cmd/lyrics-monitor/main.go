package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/handiism/lyrics-harvester/internal/config"
	"github.com/handiism/lyrics-harvester/internal/logging"
	"github.com/handiism/lyrics-harvester/internal/monitor"
	"github.com/handiism/lyrics-harvester/internal/sink"
	"github.com/handiism/lyrics-harvester/internal/tui"
)

func main() {
	var (
		configFlag   = flag.String("config", "", "Path to config file (JSON or YAML)")
		envFlag      = flag.String("env", ".env", "Path to .env file")
		intervalFlag = flag.Duration("interval", 0, "Polling interval (overrides config)")
		expectedFlag = flag.Int64("expected", -1, "Expected document total; stops when reached (0 = run until quit)")
		plainFlag    = flag.Bool("plain", false, "Log progress lines instead of the interactive view")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err == nil {
		err = settings.ApplyEnv(*envFlag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	interval := config.Seconds(settings.MonitorInterval)
	if *intervalFlag > 0 {
		interval = *intervalFlag
	}
	expected := settings.ExpectedDocuments
	if *expectedFlag >= 0 {
		expected = *expectedFlag
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := sink.Open(ctx, settings.DBPath, settings.Collection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", settings.DBPath, err)
		os.Exit(1)
	}
	defer db.Close()

	if *plainFlag {
		log, err := logging.New(settings.LogLevel, settings.LogFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()

		poller := monitor.New(db, interval, expected, log)
		for snap := range poller.Run(ctx) {
			if snap.Done {
				st, err := db.Stats(ctx)
				if err == nil {
					log.Info("collection_stats",
						zap.Int64("total", st.Total),
						zap.Int64("spotify_found", st.SpotifyFound),
						zap.Int64("estimated", st.Estimated),
						zap.Int64("genres", st.Genres),
						zap.Int64("artists", st.Artists),
					)
				}
			}
		}
		return
	}

	poller := monitor.New(db, interval, expected, nil)
	if err := tui.Run(ctx, settings.Collection, poller, db.Stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
