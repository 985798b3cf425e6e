package seed

import (
	"context"
	"fmt"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

var gameLogConflict = []string{"player_id", "game_id"}

var gameLogColumns = append([]column{
	{"season_year", "SEASON_YEAR", textCol},
	{"player_name", "PLAYER_NAME", textCol},
	{"team_id", "TEAM_ID", intCol},
	{"team_abbreviation", "TEAM_ABBREVIATION", textCol},
	{"team_name", "TEAM_NAME", textCol},
	{"matchup", "MATCHUP", textCol},
	{"wl", "WL", textCol},
	{"min", "MIN", intCol},
	{"blka", "BLKA", intCol},
	{"pfd", "PFD", intCol},
	{"plus_minus", "PLUS_MINUS", intCol},
	{"nba_fantasy_pts", "NBA_FANTASY_PTS", floatCol},
	{"dd2", "DD2", intCol},
	{"td3", "TD3", intCol},
}, countingStats...)

// ImportGameLogs upserts every player game log of a season, keyed by
// (player_id, game_id). Logs for players missing from the registry are
// unmatched; logs without a usable date or game id are skipped.
func (im *Importer) ImportGameLogs(ctx context.Context, season, seasonType string) (Result, error) {
	var res Result
	if err := im.requireStats(); err != nil {
		return res, err
	}
	players, err := im.LoadRegistry(ctx)
	if err != nil {
		return res, err
	}
	byExternal := make(map[int64]model.Player, len(players))
	for _, p := range players {
		if p.ExternalID != nil {
			byExternal[*p.ExternalID] = p
		}
	}

	logs, err := im.stats.PlayerGameLogs(ctx, season, seasonType)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.AddFetchErrorf("playergamelogs %s %s: %v", season, seasonType, err)
		im.logger.Error("game log fetch failed", "season", season, "error", err)
		return res, nil
	}
	im.logger.Info("fetched game logs", "season", season, "count", len(logs))

	pending := make([]Pending, 0, len(logs))
	for _, f := range logs {
		pending = append(pending, gameLogPending(f, byExternal))
	}
	res = im.pipeline("game_logs").UpsertBatch(ctx, config.GameLogsTable, pending, gameLogConflict, im.opts.BatchSize)
	return res, nil
}

func gameLogPending(f model.Fields, byExternal map[int64]model.Player) Pending {
	name := ""
	if s := normalize.ToCleanString(f["PLAYER_NAME"], 0); s != nil {
		name = *s
	}
	gameID := normalize.ToCleanString(f["GAME_ID"], 20)
	label := name
	if gameID != nil {
		label = fmt.Sprintf("%s %s", name, *gameID)
	}

	ext := normalize.ToInt(f["PLAYER_ID"])
	if ext == nil {
		return Skip(label, "missing PLAYER_ID")
	}
	pl, ok := byExternal[int64(*ext)]
	if !ok {
		team := ""
		if s := normalize.ToCleanString(f["TEAM_ABBREVIATION"], 0); s != nil {
			team = *s
		}
		return Pending{Key: label, Match: &model.MatchResult{
			Record: model.ExternalRecord{Source: "nba_stats", Name: name, Team: team, Fields: f},
			Status: model.StatusUnmatched,
			Reason: fmt.Sprintf("nba_player_id %d not in registry", *ext),
		}}
	}
	if gameID == nil {
		return Skip(label, "missing GAME_ID")
	}
	date := normalize.ParseDate(f["GAME_DATE"])
	if date == nil {
		return Skip(label, "invalid GAME_DATE")
	}

	row := store.Row{
		"player_id":     pl.ID,
		"nba_player_id": *ext,
		"game_id":       *gameID,
		"game_date":     *date,
	}
	copyColumns(row, f, gameLogColumns)
	addShootingPcts(row)
	row["fantasy_pts"] = fantasyPoints(row)
	return Write(label, row)
}
