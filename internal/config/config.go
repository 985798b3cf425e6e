// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// --------------------------------------------------------------------------
// Table names: single source of truth for the hosted schema
// --------------------------------------------------------------------------

const (
	PlayersTable       = "players"
	CareerTotalsTable  = "player_career_totals_regular_season"
	SeasonTotalsTable  = "player_season_totals_regular_season"
	GameLogsTable      = "player_game_logs"
	ProjectionsTable   = "espn_player_projections"
	SalariesTable      = "nba_hoopshype_salaries"
	GamesTable         = "nba_games"
	TeamsTable         = "nba_teams"
	TeamProcedure      = "upsert_nba_team"
	LeaguesTable       = "leagues"
	MatchupsTable      = "weekly_matchups"
	ScheduleProcedure  = "generate_league_schedule"
	DefaultSeason      = "2024-25"
	DefaultActiveSince = 2024
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string `validate:"required"`
	DBPoolMinConns int    `validate:"min=0"`
	DBPoolMaxConns int    `validate:"min=1,gtefield=DBPoolMinConns"`
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int    `validate:"min=1,max=65535"`
	Environment string `validate:"oneof=development staging production"` // development, staging, production
	Debug       bool
	LogFormat   string `validate:"oneof=text json"`

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int `validate:"min=1"`
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration // 0 keeps the per-endpoint defaults

	// stats.nba.com
	NBAStatsBaseURL           string `validate:"required,url"`
	NBAStatsRequestsPerMinute int    `validate:"min=0"`
	NBAStatsMaxRetries        int    `validate:"min=0,max=10"`
	NBAStatsRetryBackoff      time.Duration
	NBAStatsTimeout           time.Duration `validate:"gt=0"`

	// Ingestion pacing
	Season        string `validate:"required"`
	ActiveSince   int    `validate:"min=1946"`
	RequestDelay  time.Duration
	BatchDelay    time.Duration
	BatchSize     int `validate:"min=1,max=1000"`
	PageSize      int `validate:"min=1"`
	CooldownEvery int `validate:"min=0"`
	Cooldown      time.Duration

	// API background jobs; 0 disables
	SyncInterval     time.Duration
	ScheduleInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", envOr("SUPABASE_DB_URL", "")),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),
		LogFormat:   envOr("LOG_FORMAT", "text"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     envDuration("CACHE_TTL", 0),

		NBAStatsBaseURL:           envOr("NBA_STATS_BASE_URL", "https://stats.nba.com/stats"),
		NBAStatsRequestsPerMinute: envInt("NBA_STATS_REQUESTS_PER_MINUTE", 30),
		NBAStatsMaxRetries:        envInt("NBA_STATS_MAX_RETRIES", 3),
		NBAStatsRetryBackoff:      envDuration("NBA_STATS_RETRY_BACKOFF", 5*time.Second),
		NBAStatsTimeout:           envDuration("NBA_STATS_TIMEOUT", 30*time.Second),

		Season:        envOr("NBA_SEASON", DefaultSeason),
		ActiveSince:   envInt("INGEST_ACTIVE_SINCE", DefaultActiveSince),
		RequestDelay:  envDuration("INGEST_REQUEST_DELAY", 2*time.Second),
		BatchDelay:    envDuration("INGEST_BATCH_DELAY", 100*time.Millisecond),
		BatchSize:     envInt("INGEST_BATCH_SIZE", 100),
		PageSize:      envInt("INGEST_PAGE_SIZE", 1000),
		CooldownEvery: envInt("INGEST_COOLDOWN_EVERY", 500),
		Cooldown:      envDuration("INGEST_COOLDOWN", 30*time.Second),

		SyncInterval:     envDuration("MAINTENANCE_SYNC_INTERVAL", 0),
		ScheduleInterval: envDuration("MAINTENANCE_SCHEDULE_INTERVAL", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags. A missing database URL is reported by
// the names of the variables that can supply it.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Field() == "DatabaseURL" {
			msgs = append(msgs, "DATABASE_URL or SUPABASE_DB_URL must be set")
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("2s", "150ms") or bare seconds ("2").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
