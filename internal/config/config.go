// Package config loads walkplan settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/walkplan/walkplan/internal/database"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// DevJWTSigningKey signs tokens when JWT_SIGNING_KEY is unset outside
// production.
const DevJWTSigningKey = "local-dev-signing-key-change-in-production"

// Config holds every setting the binaries read at startup.
type Config struct {
	Port        string
	Environment string

	StorageDriver string
	Database      database.Config

	// RedisAddr enables the shared reverse-geocode cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ORSAPIKey  string
	ORSBaseURL string

	JWTSigningKey string
	OwnerID       string
	RequireTLS    bool

	TelemetryEnabled     bool
	OTLPEndpoint         string
	OTLPInsecure         bool
	TelemetrySampleRatio float64

	// Location is the zone calendar days are counted in.
	Location *time.Location

	GeocodePace    time.Duration
	SearchDebounce time.Duration

	WorkerInterval     time.Duration
	PubSubProjectID    string
	PubSubSubscription string
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load(envFiles...)
	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (Config, error) {
	var errs []error
	durations := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	integer := func(key, def string) int {
		n, err := strconv.Atoi(getEnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}

	cfg := Config{
		Port:          getEnvOrDefault("APP_PORT", "8080"),
		Environment:   getEnvOrDefault("APP_ENV", "development"),
		StorageDriver: getEnvOrDefault("STORAGE_DRIVER", StoragePostgres),
		Database: database.Config{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            integer("DB_PORT", "5432"),
			User:            getEnvOrDefault("DB_USER", "walkplan"),
			Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
			Database:        getEnvOrDefault("DB_NAME", "walkplan"),
			SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxOpenConns:    integer("DB_MAX_OPEN_CONNS", "10"),
			MaxIdleConns:    integer("DB_MAX_IDLE_CONNS", "2"),
			ConnMaxLifetime: durations("DB_CONN_MAX_LIFETIME", "5m"),
		},
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            integer("REDIS_DB", "0"),
		ORSAPIKey:          os.Getenv("ORS_API_KEY"),
		ORSBaseURL:         os.Getenv("ORS_BASE_URL"),
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		OwnerID:            getEnvOrDefault("OWNER_ID", "owner"),
		RequireTLS:         os.Getenv("REQUIRE_TLS") == "true",
		TelemetryEnabled:   os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:       getEnvOrDefault("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true",
		GeocodePace:        durations("GEOCODE_PACE", "300ms"),
		SearchDebounce:     durations("SEARCH_DEBOUNCE", "500ms"),
		WorkerInterval:     durations("WORKER_INTERVAL", "15m"),
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "walkplan-worker"),
	}

	ratio, err := strconv.ParseFloat(getEnvOrDefault("OTEL_TRACES_SAMPLER_ARG", "1"), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		errs = append(errs, errors.New("OTEL_TRACES_SAMPLER_ARG: must be a ratio between 0 and 1"))
	}
	cfg.TelemetrySampleRatio = ratio

	loc, err := time.LoadLocation(getEnvOrDefault("PLANNING_TIMEZONE", "Local"))
	if err != nil {
		errs = append(errs, fmt.Errorf("PLANNING_TIMEZONE: %w", err))
	}
	cfg.Location = loc

	switch cfg.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver))
	}

	if cfg.JWTSigningKey == "" && cfg.IsProduction() {
		errs = append(errs, errors.New("JWT_SIGNING_KEY: required in production"))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
