package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkplan/walkplan/internal/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("PLANNING_TIMEZONE", "UTC")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 300*time.Millisecond, cfg.GeocodePace)
	assert.Equal(t, 15*time.Minute, cfg.WorkerInterval)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.TelemetryEnabled)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, 1.0, cfg.TelemetrySampleRatio)
	assert.False(t, cfg.RequireTLS)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PLANNING_TIMEZONE", "Asia/Seoul")
	t.Setenv("SEARCH_DEBOUNCE", "750ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "Asia/Seoul", cfg.Location.String())
	assert.Equal(t, 750*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("DB_PORT", "five")
	t.Setenv("WORKER_INTERVAL", "soon")
	t.Setenv("PLANNING_TIMEZONE", "Nowhere/Special")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "2")

	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "WORKER_INTERVAL")
	assert.Contains(t, err.Error(), "PLANNING_TIMEZONE")
	assert.Contains(t, err.Error(), "OTEL_TRACES_SAMPLER_ARG")
}

func TestFromEnv_ProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("PLANNING_TIMEZONE", "UTC")

	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OWNER_ID=walker\nPLANNING_TIMEZONE=UTC\n"), 0o600))

	// Keep the variables registered with t so they are restored afterwards.
	t.Setenv("OWNER_ID", "")
	t.Setenv("PLANNING_TIMEZONE", "")
	require.NoError(t, os.Unsetenv("OWNER_ID"))
	require.NoError(t, os.Unsetenv("PLANNING_TIMEZONE"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "walker", cfg.OwnerID)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("PLANNING_TIMEZONE", "UTC")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "owner", cfg.OwnerID)
}
