package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/provider/nbastats"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// StatsSource is the upstream statistics API the importers read.
type StatsSource interface {
	AllPlayers(ctx context.Context, season string) ([]model.Fields, error)
	PlayerCareerStats(ctx context.Context, personID int) (nbastats.CareerStats, error)
	PlayerGameLogs(ctx context.Context, season, seasonType string) ([]model.Fields, error)
	LeagueGames(ctx context.Context, season, seasonType string) ([]model.Fields, error)
	TeamDetails(ctx context.Context, teamID int) (nbastats.TeamDetails, error)
}

// Options tunes paging, batching and pacing.
type Options struct {
	PageSize      int
	BatchSize     int
	RequestDelay  time.Duration
	BatchDelay    time.Duration
	CooldownEvery int
	Cooldown      time.Duration
	ActiveSince   int
}

// DefaultOptions paces requests the way stats.nba.com tolerates.
func DefaultOptions() Options {
	return Options{
		PageSize:      store.DefaultPageSize,
		BatchSize:     100,
		RequestDelay:  2 * time.Second,
		BatchDelay:    100 * time.Millisecond,
		CooldownEvery: 500,
		Cooldown:      30 * time.Second,
		ActiveSince:   config.DefaultActiveSince,
	}
}

// OptionsFromConfig maps the ingestion settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageSize:      cfg.PageSize,
		BatchSize:     cfg.BatchSize,
		RequestDelay:  cfg.RequestDelay,
		BatchDelay:    cfg.BatchDelay,
		CooldownEvery: cfg.CooldownEvery,
		Cooldown:      cfg.Cooldown,
		ActiveSince:   cfg.ActiveSince,
	}
}

// Importer runs the individual import jobs against one store.
type Importer struct {
	store    store.Store
	stats    StatsSource
	logger   *slog.Logger
	opts     Options
	recorder Recorder
	sleep    func(context.Context, time.Duration) error

	syncMu sync.Mutex
}

// ErrSyncRunning is returned by TrySyncPlayers while another sync on the
// same Importer is in progress.
var ErrSyncRunning = errors.New("player sync already running")

// NewImporter creates an Importer. stats may be nil for jobs that only read
// scraped files.
func NewImporter(st store.Store, stats StatsSource, logger *slog.Logger, opts Options, recorder Recorder) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:    st,
		stats:    stats,
		logger:   logger,
		opts:     opts,
		recorder: recorder,
		sleep:    sleepCtx,
	}
}

// TrySyncPlayers runs SyncPlayers unless another TrySyncPlayers call holds
// the importer. The API handler and the maintenance ticker share it.
func (im *Importer) TrySyncPlayers(ctx context.Context, season string) (Result, error) {
	if !im.syncMu.TryLock() {
		return Result{}, ErrSyncRunning
	}
	defer im.syncMu.Unlock()
	return im.SyncPlayers(ctx, season)
}

func (im *Importer) pipeline(name string) *Pipeline {
	opts := []Option{WithName(name), WithBatchDelay(im.opts.BatchDelay)}
	if im.recorder != nil {
		opts = append(opts, WithRecorder(im.recorder))
	}
	p := NewPipeline(im.store, im.logger, opts...)
	p.sleep = im.sleep
	return p
}

func (im *Importer) requireStats() error {
	if im.stats == nil {
		return fmt.Errorf("no stats source configured")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

var registryColumns = []string{"id", "nba_player_id", "name", "is_active", "team_name", "team_abbreviation"}

// LoadRegistry reads every registry player, one page at a time.
func (im *Importer) LoadRegistry(ctx context.Context) ([]model.Player, error) {
	q := store.Query{Columns: registryColumns, OrderBy: []string{"id"}}
	var players []model.Player
	for rows, err := range store.Pages(ctx, im.store, config.PlayersTable, q, im.opts.PageSize) {
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		for _, row := range rows {
			if p, ok := PlayerFromRow(row); ok {
				players = append(players, p)
			}
		}
	}
	im.logger.Info("registry loaded", "players", len(players))
	return players, nil
}

// PlayerFromRow converts a players-table row. Rows without an id are
// rejected.
func PlayerFromRow(row store.Row) (model.Player, bool) {
	id := normalize.ToInt(row["id"])
	if id == nil {
		return model.Player{}, false
	}
	p := model.Player{ID: int64(*id), IsActive: truthy(row["is_active"])}
	if ext := normalize.ToInt(row["nba_player_id"]); ext != nil {
		v := int64(*ext)
		p.ExternalID = &v
	}
	if s := normalize.ToCleanString(row["name"], 0); s != nil {
		p.Name = *s
	}
	if s := normalize.ToCleanString(row["team_name"], 0); s != nil {
		p.TeamName = *s
	}
	if s := normalize.ToCleanString(row["team_abbreviation"], 0); s != nil {
		p.TeamAbbreviation = *s
	}
	return p, true
}

func truthy(v any) bool {
	switch x := store.Deref(v).(type) {
	case bool:
		return x
	case string:
		return x == "true" || x == "t" || x == "1"
	}
	if n := normalize.ToInt(v); n != nil {
		return *n != 0
	}
	return false
}

// pace sleeps between units of work and adds the periodic cool-down.
func (im *Importer) pace(ctx context.Context, done int) {
	if done == 0 {
		return
	}
	if im.opts.CooldownEvery > 0 && done%im.opts.CooldownEvery == 0 && im.opts.Cooldown > 0 {
		im.logger.Info("cooling down", "processed", done, "pause", im.opts.Cooldown)
		_ = im.sleep(ctx, im.opts.Cooldown)
		return
	}
	_ = im.sleep(ctx, im.opts.RequestDelay)
}
