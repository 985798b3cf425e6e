package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/hoopgeek")
	t.Setenv("SUPABASE_DB_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/hoopgeek", cfg.DatabaseURL)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 3, cfg.NBAStatsMaxRetries)
	assert.Equal(t, 5*time.Second, cfg.NBAStatsRetryBackoff)
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1000, cfg.PageSize)
	assert.Equal(t, DefaultSeason, cfg.Season)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFallsBackToSupabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_DB_URL", "postgres://supabase/db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://supabase/db", cfg.DatabaseURL)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_DB_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL or SUPABASE_DB_URL must be set")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("INGEST_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogFormat")
	assert.Contains(t, err.Error(), "BatchSize")
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "150ms")
	assert.Equal(t, 150*time.Millisecond, envDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "2.5")
	assert.Equal(t, 2500*time.Millisecond, envDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Second, envDuration("X_DURATION", time.Second))
}

func TestEnvList(t *testing.T) {
	t.Setenv("X_LIST", " a, ,b ")
	assert.Equal(t, []string{"a", "b"}, envList("X_LIST", nil))
}
