package seed

import (
	"context"
	"fmt"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
)

var (
	careerConflict = []string{"player_id"}
	seasonConflict = []string{"player_id", "season_id"}
)

// ImportCareerStats fetches playercareerstats for registry players and
// upserts the career and per-season regular-season totals. limit > 0 caps
// the number of players processed. A player whose fetch fails after retries
// is reported and skipped.
func (im *Importer) ImportCareerStats(ctx context.Context, limit int) (Result, error) {
	var res Result
	if err := im.requireStats(); err != nil {
		return res, err
	}
	players, err := im.LoadRegistry(ctx)
	if err != nil {
		return res, err
	}
	if limit > 0 && limit < len(players) {
		players = players[:limit]
	}

	careerPipe := im.pipeline("career_totals")
	seasonPipe := im.pipeline("season_totals")

	for i, pl := range players {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if pl.ExternalID == nil {
			res.Merge(careerPipe.Upsert(ctx, config.CareerTotalsTable, []Pending{Skip(pl.Name, "no nba_player_id")}, careerConflict))
			continue
		}
		im.pace(ctx, i)

		stats, err := im.stats.PlayerCareerStats(ctx, int(*pl.ExternalID))
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.AddFetchErrorf("career stats %s (%d): %v", pl.Name, *pl.ExternalID, err)
			im.logger.Warn("career stats fetch failed", "player", pl.Name, "nba_player_id", *pl.ExternalID, "error", err)
			continue
		}

		if len(stats.Career) > 0 {
			row := totalsRow(stats.Career[0])
			row["player_id"] = pl.ID
			row["nba_player_id"] = *pl.ExternalID
			res.Merge(careerPipe.Upsert(ctx, config.CareerTotalsTable, []Pending{Write(pl.Name, row)}, careerConflict))
		}
		res.Merge(seasonPipe.Upsert(ctx, config.SeasonTotalsTable, seasonPendings(pl, stats.Seasons), seasonConflict))

		if (i+1)%50 == 0 {
			im.logger.Info("career stats progress", "processed", i+1, "total", len(players), "summary", res.Summary())
		}
	}
	return res, nil
}

// seasonPendings builds one row per season. A player traded mid-season has
// a row per team plus a "TOT" row; the TOT row is kept.
func seasonPendings(pl model.Player, seasons []model.Fields) []Pending {
	var (
		order  []string
		chosen = map[string]model.Fields{}
		out    []Pending
	)
	for _, f := range seasons {
		sid := normalize.ToCleanString(f["SEASON_ID"], 20)
		if sid == nil {
			out = append(out, Skip(pl.Name, "missing SEASON_ID"))
			continue
		}
		prev, seen := chosen[*sid]
		if !seen {
			order = append(order, *sid)
		}
		if seen && isTotalRow(prev) && !isTotalRow(f) {
			continue
		}
		chosen[*sid] = f
	}

	for _, sid := range order {
		row := totalsRow(chosen[sid])
		row["player_id"] = pl.ID
		row["nba_player_id"] = *pl.ExternalID
		row["season_id"] = sid
		out = append(out, Write(fmt.Sprintf("%s %s", pl.Name, sid), row))
	}
	return out
}

func isTotalRow(f model.Fields) bool {
	abbr := normalize.ToCleanString(f["TEAM_ABBREVIATION"], 0)
	return abbr != nil && *abbr == "TOT"
}
