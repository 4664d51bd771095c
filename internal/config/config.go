package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENVIRONMENT" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// JWT settings. When JWTSecretName is set the signing secret is loaded
	// from GCP Secret Manager at startup and JWTSecret is only a fallback.
	JWTSecret         string `envconfig:"SECRET_KEY"`
	JWTExpirationDays int    `envconfig:"JWT_EXPIRATION_DAYS" default:"30"`
	JWTSecretName     string `envconfig:"JWT_SECRET_NAME"`

	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	// Scraper settings
	ScraperDir        string `envconfig:"SCRAPER_DIR" default:"./src"`
	ScraperCommand    string `envconfig:"SCRAPER_COMMAND" default:"npm start"`
	ScraperTimeoutSec int    `envconfig:"SCRAPER_TIMEOUT_SEC" default:"300"`

	// Job bookkeeping settings
	StuckJobMaxAgeMin int `envconfig:"STUCK_JOB_MAX_AGE_MIN" default:"30"`
	JobCleanupDays    int `envconfig:"JOB_CLEANUP_DAYS" default:"7"`

	// Google Cloud settings (optional). Job lifecycle events are published
	// to JobEventsTopic when GCPProjectID is set.
	GCPProjectID          string `envconfig:"GCP_PROJECT_ID"`
	JobEventsTopic        string `envconfig:"JOB_EVENTS_TOPIC" default:"ads-job-events"`
	GoogleCredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE"`

	// Scraper log archive settings (optional). Full untruncated logs are
	// uploaded to S3 when LogArchiveBucket is set.
	LogArchiveURL       string `envconfig:"LOG_ARCHIVE_S3_URL"`
	LogArchiveBucket    string `envconfig:"LOG_ARCHIVE_S3_BUCKET"`
	LogArchiveRegion    string `envconfig:"LOG_ARCHIVE_S3_REGION" default:"us-east-1"`
	LogArchiveAccessKey string `envconfig:"LOG_ARCHIVE_S3_ACCESS_KEY"`
	LogArchiveSecretKey string `envconfig:"LOG_ARCHIVE_S3_SECRET_KEY"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CORSOriginList splits the configured comma-separated origins into the form
// the CORS middleware expects.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
