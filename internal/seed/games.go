package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

var gameConflict = []string{"game_id"}

// ImportGames upserts one nba_games row per game, keyed by game_id.
// leaguegamefinder returns a row per team; the two rows of a game are
// merged into its home and away columns.
func (im *Importer) ImportGames(ctx context.Context, season, seasonType string) (Result, error) {
	var res Result
	if err := im.requireStats(); err != nil {
		return res, err
	}

	rows, err := im.stats.LeagueGames(ctx, season, seasonType)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.AddFetchErrorf("leaguegamefinder %s %s: %v", season, seasonType, err)
		im.logger.Error("game list fetch failed", "season", season, "error", err)
		return res, nil
	}
	im.logger.Info("fetched team game rows", "season", season, "count", len(rows))

	res = im.pipeline("games").UpsertBatch(ctx, config.GamesTable, gamePendings(rows), gameConflict, im.opts.BatchSize)
	return res, nil
}

// gamePendings groups team rows by GAME_ID. A game is written once however
// many of its team rows arrive; unusable team rows are skipped individually.
func gamePendings(rows []model.Fields) []Pending {
	var (
		order []string
		games = map[string]store.Row{}
		out   []Pending
	)
	for _, f := range rows {
		gameID := normalize.ToCleanString(f["GAME_ID"], 20)
		matchup := ""
		if s := normalize.ToCleanString(f["MATCHUP"], 0); s != nil {
			matchup = *s
		}
		if gameID == nil {
			out = append(out, Skip(matchup, "missing GAME_ID"))
			continue
		}
		label := fmt.Sprintf("%s %s", *gameID, matchup)
		side, ok := matchupSide(matchup)
		if !ok {
			out = append(out, Skip(label, "unrecognised MATCHUP"))
			continue
		}
		date := normalize.ParseDate(f["GAME_DATE"])
		if date == nil {
			out = append(out, Skip(label, "invalid GAME_DATE"))
			continue
		}

		row, seen := games[*gameID]
		if !seen {
			row = store.Row{"game_id": *gameID, "game_date": *date}
			row.Set("season_id", normalize.ToCleanString(f["SEASON_ID"], 10))
			games[*gameID] = row
			order = append(order, *gameID)
		}
		row.Set(side+"_team_id", normalize.ToInt(f["TEAM_ID"]))
		row.Set(side+"_team_name", normalize.ToCleanString(f["TEAM_NAME"], 100))
		row.Set(side+"_team_tricode", normalize.ToCleanString(f["TEAM_ABBREVIATION"], 10))
		row.Set(side+"_team_score", normalize.ToInt(f["PTS"]))
	}

	for _, id := range order {
		row := games[id]
		if row["home_team_score"] != nil && row["away_team_score"] != nil {
			row["game_status_text"] = "Final"
		}
		out = append(out, Write(id, row))
	}
	return out
}

// matchupSide reads the team's side from MATCHUP: "DEN vs. LAL" is the home
// row, "LAL @ DEN" the away row.
func matchupSide(matchup string) (string, bool) {
	switch {
	case strings.Contains(matchup, " vs. "):
		return "home", true
	case strings.Contains(matchup, " @ "):
		return "away", true
	}
	return "", false
}
