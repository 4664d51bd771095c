package main

import (
	"flag"
	"fmt"

	"app/internal/config"
	"app/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	dir := flag.String("dir", "migrations", "Path to migration files")
	cmd := flag.String("cmd", "up", "Migration command: up|down|version")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", *dir), cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to create migrate instance: %v", err)
	}
	defer m.Close()

	switch *cmd {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logger.Fatal().Msgf("Failed to run migrations: %v", err)
		}
		logger.Info().Msg("Migrations applied")
	case "down":
		if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
			logger.Fatal().Msgf("Failed to rollback migration: %v", err)
		}
		logger.Info().Msg("Last migration rolled back")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && err != migrate.ErrNilVersion {
			logger.Fatal().Msgf("Failed to get migration version: %v", err)
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration version")
	default:
		logger.Fatal().Msgf("Invalid command: %s", *cmd)
	}
}
