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

var playerConflict = []string{"nba_player_id"}

var playerColumns = []column{
	{"team_abbreviation", "TEAM_ABBREVIATION", textCol},
	{"jersey_number", "JERSEY", textCol},
	{"height", "HEIGHT", textCol},
	{"weight", "WEIGHT", textCol},
	{"birth_date", "BIRTHDATE", dateCol},
	{"birth_country", "COUNTRY", textCol},
	{"college", "SCHOOL", textCol},
	{"position", "POSITION", textCol},
	{"draft_year", "DRAFT_YEAR", intCol},
	{"draft_round", "DRAFT_ROUND", intCol},
	{"draft_number", "DRAFT_NUMBER", intCol},
	{"from_year", "FROM_YEAR", intCol},
	{"to_year", "TO_YEAR", intCol},
}

// SyncPlayers refreshes the registry from commonallplayers, keyed by
// nba_player_id. An upstream failure is reported on the result.
func (im *Importer) SyncPlayers(ctx context.Context, season string) (Result, error) {
	var res Result
	if err := im.requireStats(); err != nil {
		return res, err
	}
	if season == "" {
		season = config.DefaultSeason
	}

	rows, err := im.stats.AllPlayers(ctx, season)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.AddFetchErrorf("commonallplayers %s: %v", season, err)
		im.logger.Error("player list fetch failed", "season", season, "error", err)
		return res, nil
	}
	im.logger.Info("fetched players", "season", season, "count", len(rows))

	pending := make([]Pending, 0, len(rows))
	for _, f := range rows {
		pending = append(pending, playerPending(f, im.opts.ActiveSince))
	}

	res = im.pipeline("players").UpsertBatch(ctx, config.PlayersTable, pending, playerConflict, im.opts.BatchSize)
	return res, nil
}

func playerPending(f model.Fields, activeSince int) Pending {
	personID := normalize.ToInt(f["PERSON_ID"])
	name := normalize.ToCleanString(f.Get("DISPLAY_FIRST_LAST", "PLAYER_NAME"), 100)
	label := "unknown player"
	if name != nil {
		label = *name
	}
	if personID == nil || *personID <= 0 {
		return Skip(label, "missing PERSON_ID")
	}
	if name == nil {
		label = fmt.Sprintf("PERSON_ID %d", *personID)
	}

	row := store.Row{"nba_player_id": *personID}
	row.Set("name", name)
	if name != nil {
		first, last := splitName(*name)
		row.Set("first_name", first)
		row.Set("last_name", last)
	}
	copyColumns(row, f, playerColumns)

	if teamID := normalize.ToInt(f["TEAM_ID"]); teamID != nil && *teamID != 0 {
		row["team_id"] = *teamID
	}
	row.Set("team_name", teamName(f))

	toYear := normalize.ToInt(f["TO_YEAR"])
	row["is_active"] = toYear == nil || *toYear >= activeSince
	if exp := normalize.ToInt(f["SEASON_EXP"]); exp != nil {
		row["years_pro"] = *exp
		row["is_rookie"] = *exp == 0
	}
	return Write(label, row)
}

// splitName splits on the first space: "Shai Gilgeous-Alexander" becomes
// "Shai", "Gilgeous-Alexander". One-word names have no last name.
func splitName(name string) (first, last *string) {
	f, l, found := strings.Cut(name, " ")
	first = &f
	if found && strings.TrimSpace(l) != "" {
		l = strings.TrimSpace(l)
		last = &l
	}
	return first, last
}

// teamName joins TEAM_CITY and TEAM_NAME ("Denver" + "Nuggets") when the
// endpoint splits them.
func teamName(f model.Fields) *string {
	name := normalize.ToCleanString(f["TEAM_NAME"], 0)
	city := normalize.ToCleanString(f["TEAM_CITY"], 0)
	if name == nil {
		return nil
	}
	if city != nil && !strings.HasPrefix(*name, *city) {
		full := *city + " " + *name
		return &full
	}
	return name
}
