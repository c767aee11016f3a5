package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kanalyab/internal/catalog"
	"kanalyab/internal/core/config"
	"kanalyab/internal/core/database"
	"kanalyab/internal/core/logging"
	"kanalyab/internal/moderation"
	"kanalyab/internal/refresh"
	"kanalyab/internal/youtube"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

type Application struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Moderation ModerationService
	Catalog    CatalogService
	Health     func(ctx context.Context) error
}

func main() {
	envFiles := config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, "webapp")
	logger.Debug().Strs("files", envFiles).Msg("loaded dotenv files")

	if err := cfg.Validate(config.NeedDatabase, config.NeedYouTube, config.NeedAdminToken); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.MigrationsPath, cfg.DatabaseURL, database.MigrateUp, logger); err != nil {
			logger.Fatal().Err(err).Msg("could not migrate the database")
		}
	}

	store, err := database.NewDBStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to the database")
	}
	defer store.Close()

	yt := youtube.NewClient(cfg.YouTubeAPIKey, cfg.YouTubeTimeout, youtube.WithLogger(logger))

	app := &Application{
		Config:     cfg,
		Logger:     logger,
		Moderation: moderation.NewService(store, youtube.NewResolver(yt), yt, logger),
		Catalog:    catalog.NewService(store, logger),
		Health:     store.Ping,
	}

	var wg sync.WaitGroup
	if cfg.RefreshInServer {
		job := refresh.NewJob(store, yt, logger,
			refresh.WithInterval(cfg.RefreshInterval),
			refresh.WithChannelDelay(cfg.RefreshChannelDelay),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run(ctx)
		}()
	}

	err = app.serve(ctx)
	stop()
	wg.Wait()
	if err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func (app *Application) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + app.Config.Port,
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info().Str("addr", srv.Addr).Str("env", app.Config.Environment).Msg("starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.Logger.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
