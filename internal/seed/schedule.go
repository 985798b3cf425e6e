package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// ScheduleParams are the arguments of the schedule procedure.
type ScheduleParams struct {
	RegularSeasonWeeks int
	PlayoffTeams       int
	PlayoffWeeks       int
	SeasonStart        time.Time
}

// DefaultScheduleParams is an 18-week regular season with a 6-team,
// 3-week playoff.
func DefaultScheduleParams() ScheduleParams {
	return ScheduleParams{
		RegularSeasonWeeks: 18,
		PlayoffTeams:       6,
		PlayoffWeeks:       3,
		SeasonStart:        time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
	}
}

// LeagueIDs lists every league id.
func (im *Importer) LeagueIDs(ctx context.Context) ([]string, error) {
	rows, err := store.All(ctx, im.store, config.LeaguesTable,
		store.Query{Columns: []string{"id"}, OrderBy: []string{"id"}}, im.opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if id := normalize.ToCleanString(r["id"], 0); id != nil {
			ids = append(ids, *id)
		}
	}
	return ids, nil
}

// GenerateSchedules calls the schedule procedure for each league. Leagues
// that already have matchups are skipped; a generated schedule counts as
// imported.
func (im *Importer) GenerateSchedules(ctx context.Context, leagueIDs []string, params ScheduleParams) Result {
	var res Result
	p := im.pipeline("league_schedule")

	for _, id := range leagueIDs {
		exists, err := im.store.Exists(ctx, config.MatchupsTable, map[string]any{"league_id": id})
		if err != nil {
			p.add(&res, RecordResult{Key: id, Outcome: OutcomeError, Err: fmt.Errorf("check matchups: %w", err)}, config.MatchupsTable)
			continue
		}
		if exists {
			p.add(&res, RecordResult{Key: id, Outcome: OutcomeSkipped, Reason: "league already has matchups"}, "")
			continue
		}

		n, err := im.store.Call(ctx, config.ScheduleProcedure,
			id, params.RegularSeasonWeeks, params.PlayoffTeams, params.PlayoffWeeks,
			params.SeasonStart.Format("2006-01-02"))
		if err != nil {
			p.add(&res, RecordResult{Key: id, Outcome: OutcomeError, Err: err}, config.MatchupsTable)
			continue
		}
		im.logger.Info("schedule generated", "league_id", id, "result", n)
		p.add(&res, RecordResult{Key: id, Outcome: OutcomeImported}, "")
	}
	return res
}
