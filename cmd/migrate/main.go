package main

import (
	"os"

	"dayplan/internal/config"
	"dayplan/internal/db"
	"dayplan/internal/logging"
	"dayplan/migrations"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogConsole, os.Stderr)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir, migrations.Files)); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	logger.Info().Str("db_path", cfg.DBPath).Msg("migrations applied successfully")
}
