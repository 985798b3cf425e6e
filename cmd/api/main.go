// Command api is the HoopGeek data API server.
//
// Usage:
//
//	hoopgeek-api
//	API_PORT=8080 hoopgeek-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/hoopgeek-data/internal/api"
	"github.com/albapepper/hoopgeek-data/internal/api/handler"
	"github.com/albapepper/hoopgeek-data/internal/cache"
	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/db"
	"github.com/albapepper/hoopgeek-data/internal/maintenance"
	"github.com/albapepper/hoopgeek-data/internal/metrics"
	"github.com/albapepper/hoopgeek-data/internal/provider/nbastats"
	"github.com/albapepper/hoopgeek-data/internal/seed"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
	}
	var logger *slog.Logger
	if cfg.LogFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	st := store.NewPostgres(pool)
	m := metrics.New()
	stats := nbastats.NewClient(cfg.NBAStatsBaseURL, cfg.NBAStatsRequestsPerMinute, logger,
		nbastats.WithRetry(cfg.NBAStatsMaxRetries, cfg.NBAStatsRetryBackoff),
		nbastats.WithTimeout(cfg.NBAStatsTimeout))
	importer := seed.NewImporter(st, stats, logger, seed.OptionsFromConfig(cfg), m)

	go maintenance.Start(ctx, importer, appCache, maintenance.Config{
		SyncInterval:     cfg.SyncInterval,
		ScheduleInterval: cfg.ScheduleInterval,
		Season:           cfg.Season,
		Schedule:         seed.DefaultScheduleParams(),
	}, logger)

	h := handler.New(st, pool, appCache, importer, cfg.Season, logger, handler.WithCacheTTL(cfg.CacheTTL))
	router := api.NewRouter(h, m, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute, // POST /sync-players waits on stats.nba.com
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HoopGeek Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
