package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kanalyab/internal/core/config"
	"kanalyab/internal/core/database"
	"kanalyab/internal/core/logging"
	"kanalyab/internal/refresh"
	"kanalyab/internal/youtube"

	"github.com/rs/zerolog"
)

func main() {
	once := flag.Bool("once", false, "run a single refresh pass and exit")
	flag.Parse()

	envFiles := config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, "worker")
	logger.Debug().Strs("files", envFiles).Msg("loaded dotenv files")

	if err := cfg.Validate(config.NeedDatabase, config.NeedYouTube); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.NewDBStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to the database")
	}
	defer store.Close()

	yt := youtube.NewClient(cfg.YouTubeAPIKey, cfg.YouTubeTimeout, youtube.WithLogger(logger))
	job := refresh.NewJob(store, yt, logger,
		refresh.WithInterval(cfg.RefreshInterval),
		refresh.WithChannelDelay(cfg.RefreshChannelDelay),
	)

	if *once {
		code := runOnce(ctx, job, logger)
		stop()
		store.Close()
		os.Exit(code)
	}

	job.Run(ctx)
}

// runOnce runs a single pass and returns the process exit status.
func runOnce(ctx context.Context, job *refresh.Job, logger zerolog.Logger) int {
	res, err := job.RefreshAllChannels(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("refresh pass failed")
		return 1
	}
	logger.Info().Int("total", res.Total).Int("refreshed", res.Refreshed).Int("failed", res.Failed).Msg("refresh pass complete")
	return 0
}
