package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/repository"
	"app/internal/service"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// The sweeper fails jobs whose process died without reporting back, and
// prunes old job rows. Run it from cron or a scheduler sidecar.
func main() {
	mode := flag.String("mode", "all", "Sweeper mode: stuck|cleanup|all")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	jobRepo := repository.NewJobRepo(db)
	tracker := service.NewJobTracker(jobRepo, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *mode == "stuck" || *mode == "all" {
		maxAge := time.Duration(cfg.StuckJobMaxAgeMin) * time.Minute
		stuck, err := tracker.StuckJobs(ctx, maxAge)
		if err != nil {
			logger.Fatal().Msgf("Failed to list stuck jobs: %v", err)
		}
		for _, job := range stuck {
			if err := tracker.MarkStuck(ctx, job.JobID); err != nil {
				logger.Error().Str("job_id", job.JobID).Msgf("Failed to fail stuck job: %v", err)
				continue
			}
			logger.Info().Str("job_id", job.JobID).Str("user_id", job.UserID).Msg("Stuck job marked as failed")
		}
		logger.Info().Int("count", len(stuck)).Msg("Stuck job sweep complete")
	}

	if *mode == "cleanup" || *mode == "all" {
		removed, err := tracker.CleanupOldJobs(ctx, time.Duration(cfg.JobCleanupDays)*24*time.Hour)
		if err != nil {
			logger.Fatal().Msgf("Failed to clean up old jobs: %v", err)
		}
		logger.Info().Int64("removed", removed).Int("older_than_days", cfg.JobCleanupDays).Msg("Old job cleanup complete")
	}

	logger.Info().Msg("Sweeper finished")
}
