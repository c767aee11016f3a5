package main

import (
	"flag"
	"fmt"
	"os"

	"kanalyab/internal/core/config"
	"kanalyab/internal/core/database"
	"kanalyab/internal/core/logging"
)

func main() {
	direction := flag.String("direction", "up", `"up" applies every pending migration, "down" rolls back one`)
	flag.Parse()

	envFiles := config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, "migrator")
	logger.Debug().Strs("files", envFiles).Msg("loaded dotenv files")

	if err := cfg.Validate(config.NeedDatabase); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Info().Str("source", cfg.MigrationsPath).Str("direction", *direction).Msg("running database migrations")
	if err := database.Migrate(cfg.MigrationsPath, cfg.DatabaseURL, database.MigrateDirection(*direction), logger); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
}
