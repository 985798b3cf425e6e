// Package maintenance runs periodic background jobs for the API server as
// Go tickers.
package maintenance

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/hoopgeek-data/internal/seed"
)

// Config controls task intervals. Zero disables a task.
type Config struct {
	SyncInterval     time.Duration // registry sync from stats.nba.com
	ScheduleInterval time.Duration // fill in schedules for new leagues
	Season           string
	Schedule         seed.ScheduleParams
}

// Jobs is the work the tickers drive. *seed.Importer implements it; its
// TrySyncPlayers guard is shared with POST /sync-players.
type Jobs interface {
	TrySyncPlayers(ctx context.Context, season string) (seed.Result, error)
	LeagueIDs(ctx context.Context) ([]string, error)
	GenerateSchedules(ctx context.Context, leagueIDs []string, params seed.ScheduleParams) seed.Result
}

// Invalidator drops cached responses after the registry changes.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// Start launches the configured tickers and blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, jobs Jobs, inv Invalidator, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"sync", cfg.SyncInterval,
		"schedule", cfg.ScheduleInterval)

	var wg sync.WaitGroup
	start := func(interval time.Duration, name string, fn func()) {
		if interval <= 0 {
			return
		}
		t := time.NewTicker(interval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer t.Stop()
			runLoop(ctx, t.C, fn)
		}()
		logger.Debug("Maintenance task scheduled", "task", name, "every", interval)
	}

	start(cfg.SyncInterval, "sync", func() { syncRegistry(ctx, jobs, inv, cfg.Season, logger) })
	start(cfg.ScheduleInterval, "schedule", func() { scheduleSweep(ctx, jobs, cfg.Schedule, logger) })

	<-ctx.Done()
	wg.Wait()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// syncRegistry refreshes the player registry and drops cached player
// responses when anything was written.
func syncRegistry(ctx context.Context, jobs Jobs, inv Invalidator, season string, logger *slog.Logger) {
	res, err := jobs.TrySyncPlayers(ctx, season)
	if errors.Is(err, seed.ErrSyncRunning) {
		logger.Info("Registry sync: skipped, another sync is running")
		return
	}
	if err != nil {
		logger.Warn("Registry sync: failed", "error", err)
		return
	}
	for _, msg := range res.FetchFailures {
		logger.Warn("Registry sync: fetch failed", "detail", msg)
	}
	if res.Imported+res.Updated > 0 && inv != nil {
		inv.InvalidatePrefix("players:")
		inv.InvalidatePrefix("stats:")
	}
	logger.Info("Registry sync: done", "summary", res.Summary())
}

// scheduleSweep generates matchups for leagues created since the last pass.
// Leagues that already have a schedule are skipped by GenerateSchedules.
func scheduleSweep(ctx context.Context, jobs Jobs, params seed.ScheduleParams, logger *slog.Logger) {
	ids, err := jobs.LeagueIDs(ctx)
	if err != nil {
		logger.Warn("Schedule sweep: failed to list leagues", "error", err)
		return
	}
	res := jobs.GenerateSchedules(ctx, ids, params)
	if res.Imported > 0 || res.Errors > 0 {
		logger.Info("Schedule sweep: done", "summary", res.Summary())
	}
}
