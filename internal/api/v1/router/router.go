package router

import (
	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"
	"context"
	"database/sql"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, service.RefreshService, error) {
	logger.Info().Msg("Router initialized")
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled for
	// local testing. In production, the connection string should be provided
	// with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}
	// For non-development environments that use a transaction pooler like pgbouncer,
	// we must use the simple query protocol to avoid issues with server-side prepared statements.
	if cfg.Environment != "development" {
		if !strings.Contains(dsn, "prefer_simple_protocol") {
			separator := "&"
			if !strings.Contains(dsn, "?") {
				separator = "?"
			}
			dsn += separator + "prefer_simple_protocol=true"
		}
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
		return nil, nil, nil, err
	}

	// Ping the database to ensure connection is valid
	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
		return nil, nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// Set reasonable connection pool limits
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Resolve the token signing secret. Secret Manager wins when configured.
	jwtSecret := cfg.JWTSecret
	if cfg.JWTSecretName != "" {
		secretSvc, err := service.NewSecretManagerService(context.Background(), cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
			return nil, nil, nil, err
		}
		jwtSecret, err = secretSvc.SigningSecret(context.Background())
		if err != nil {
			logger.Fatal().Msgf("Failed to load signing secret: %v", err)
			return nil, nil, nil, err
		}
		secretSvc.Close()
		logger.Info().Str("secret_name", cfg.JWTSecretName).Msg("Signing secret loaded from Secret Manager")
	}
	if jwtSecret == "" {
		logger.Fatal().Msg("No signing secret configured: set SECRET_KEY or JWT_SECRET_NAME")
	}

	// 3. Initialize the log archiver (optional)
	var archiver service.LogArchiver
	if cfg.LogArchiveBucket != "" {
		s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.LogArchiveRegion),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.LogArchiveAccessKey, cfg.LogArchiveSecretKey, "")),
			awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
		)
		if err != nil {
			logger.Fatal().Msgf("Failed to load S3 config: %v", err)
		}
		s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
			if cfg.LogArchiveURL != "" {
				o.BaseEndpoint = aws.String(cfg.LogArchiveURL)
			}
			o.UsePathStyle = true
		})
		archiver = service.NewS3LogArchiver(s3Client, cfg.LogArchiveBucket, logger)
		logger.Info().Str("bucket", cfg.LogArchiveBucket).Msg("Job log archival enabled")
	}

	// 4. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 5. Initialize Pub/Sub publisher (optional)
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		pubSubPublisher, err := pubsub.NewPublisher(context.Background(), cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
			return nil, nil, nil, err
		}
		publisher = pubSubPublisher
		logger.Info().Str("topic", cfg.JobEventsTopic).Msg("Job event publishing enabled")
	}

	// 6. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(db)
	competitorRepo := repository.NewCompetitorRepo(db, logger)
	jobRepo := repository.NewJobRepo(db)
	metricRepo := repository.NewMetricRepo(db)

	tokenTTL := time.Duration(cfg.JWTExpirationDays) * 24 * time.Hour
	scraperTimeout := time.Duration(cfg.ScraperTimeoutSec) * time.Second

	authSvc := service.NewAuthService(userRepo, jwtSecret, tokenTTL, logger)
	competitorSvc := service.NewCompetitorService(competitorRepo, logger)
	tracker := service.NewJobTracker(jobRepo, logger)
	fetcher := service.NewAdsFetcher(cfg.ScraperDir, cfg.ScraperCommand, scraperTimeout, logger)
	refreshSvc := service.NewRefreshService(tracker, fetcher, competitorRepo, publisher, archiver, logger)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	intelSvc := service.NewIntelService(competitorRepo, metricRepo, rng, logger)

	authHandler := handler.NewAuthHandler(authSvc, validate, logger)
	competitorHandler := handler.NewCompetitorHandler(competitorSvc, validate, logger)
	adsHandler := handler.NewAdsHandler(refreshSvc, fetcher, validate, logger)
	intelHandler := handler.NewIntelHandler(intelSvc, logger)

	// 7. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(jwtSecret)

	// 8. Create ServeMux router
	mux := http.NewServeMux()

	// Create a subrouter for API v1 with the /v1 prefix
	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	competitorHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	adsHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	intelHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	// Redirect all other root-level requests to /v1/{path}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Avoid redirect loops by checking if already under /v1 or /api
		if strings.HasPrefix(r.URL.Path, "/v1/") || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOriginList(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), db, refreshSvc, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		// Only remove the middleware if it exists.
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
