package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application-wide configuration loaded from environment variables.
type Config struct {
	ProjectID       string
	CredentialsFile string
	Dataset         string
	Location        string
	AppEnv          string
	SentryDSN       string
	UsersFile       string
	JWTSecret       string
	ExportBucket    string
	AssetsDir       string
	CacheTTL        time.Duration
	Port            string
}

// LoadConfig reads configuration from environment variables or a .env file.
// It is the single source of truth for application configuration.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists. In production these are set directly
	// in the environment.
	_ = godotenv.Load()

	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		return nil, fmt.Errorf("FATAL: GCP_PROJECT_ID environment variable not set")
	}

	usersFile := os.Getenv("USERS_FILE")
	if usersFile == "" {
		return nil, fmt.Errorf("FATAL: USERS_FILE environment variable not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("FATAL: JWT_SECRET environment variable not set")
	}

	dataset := os.Getenv("BQ_DATASET")
	if dataset == "" {
		dataset = "mind_analytics"
	}

	// Must match the region the warehouse dataset lives in.
	location := os.Getenv("BQ_LOCATION")
	if location == "" {
		location = "europe-west3"
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	cacheTTL := time.Hour
	if raw := os.Getenv("CACHE_TTL_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("FATAL: CACHE_TTL_SECONDS must be a positive integer, got %q", raw)
		}
		cacheTTL = time.Duration(secs) * time.Second
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		ProjectID:       projectID,
		CredentialsFile: os.Getenv("GCP_CREDENTIALS_FILE"),
		Dataset:         dataset,
		Location:        location,
		AppEnv:          appEnv,
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		UsersFile:       usersFile,
		JWTSecret:       jwtSecret,
		ExportBucket:    os.Getenv("EXPORT_BUCKET"),
		AssetsDir:       os.Getenv("ASSETS_DIR"),
		CacheTTL:        cacheTTL,
		Port:            port,
	}, nil
}

// DatasetID returns the fully-qualified dataset identifier used in all
// generated SQL, e.g. "my-project.mind_analytics".
func (c *Config) DatasetID() string {
	return c.ProjectID + "." + c.Dataset
}
