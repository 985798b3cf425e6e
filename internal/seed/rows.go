package seed

import (
	"github.com/albapepper/hoopgeek-data/internal/fantasy"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

type kind int

const (
	intCol kind = iota
	floatCol
	textCol
	dateCol
)

// column maps a source header to a datastore column.
type column struct {
	name string
	src  string
	kind kind
}

// copyColumns normalizes each mapped field of f into row.
func copyColumns(row store.Row, f model.Fields, cols []column) {
	for _, c := range cols {
		v := f[c.src]
		switch c.kind {
		case intCol:
			row.Set(c.name, normalize.ToInt(v))
		case floatCol:
			row.Set(c.name, normalize.ToFloat(v))
		case textCol:
			row.Set(c.name, normalize.ToCleanString(v, 0))
		case dateCol:
			row.Set(c.name, normalize.ParseDate(v))
		}
	}
}

// countingStats are the per-player totals shared by career, season and game
// rows.
var countingStats = []column{
	{"fgm", "FGM", intCol},
	{"fga", "FGA", intCol},
	{"fg3m", "FG3M", intCol},
	{"fg3a", "FG3A", intCol},
	{"ftm", "FTM", intCol},
	{"fta", "FTA", intCol},
	{"oreb", "OREB", intCol},
	{"dreb", "DREB", intCol},
	{"reb", "REB", intCol},
	{"ast", "AST", intCol},
	{"stl", "STL", intCol},
	{"blk", "BLK", intCol},
	{"tov", "TOV", intCol},
	{"pf", "PF", intCol},
	{"pts", "PTS", intCol},
}

var totalsColumns = append([]column{
	{"gp", "GP", intCol},
	{"gs", "GS", intCol},
	{"min_total", "MIN", intCol},
	{"team_id", "TEAM_ID", intCol},
	{"team_abbreviation", "TEAM_ABBREVIATION", textCol},
	{"player_age", "PLAYER_AGE", intCol},
	{"league_id", "LEAGUE_ID", textCol},
}, countingStats...)

// perGameColumns are derived only for aggregated lines.
var perGameColumns = []struct{ name, total string }{
	{"min_per_game", "min_total"},
	{"pts_per_game", "pts"},
	{"reb_per_game", "reb"},
	{"ast_per_game", "ast"},
	{"stl_per_game", "stl"},
	{"blk_per_game", "blk"},
	{"tov_per_game", "tov"},
}

// totalsRow builds an aggregated stat line from a playercareerstats row:
// counting totals, recomputed shooting percentages, fantasy points and
// per-game averages (nil when no games were played).
func totalsRow(f model.Fields) store.Row {
	row := store.Row{}
	copyColumns(row, f, totalsColumns)
	addShootingPcts(row)
	row["fantasy_pts"] = fantasyPoints(row)

	gp := intAt(row, "gp")
	for _, c := range perGameColumns {
		row.Set(c.name, fantasy.PerGame(intAt(row, c.total), gp))
	}
	return row
}

// addShootingPcts derives percentages from makes and attempts so a zero
// attempt count yields nil rather than 0.
func addShootingPcts(row store.Row) {
	row.Set("fg_pct", fantasy.Pct(intAt(row, "fgm"), intAt(row, "fga")))
	row.Set("fg3_pct", fantasy.Pct(intAt(row, "fg3m"), intAt(row, "fg3a")))
	row.Set("ft_pct", fantasy.Pct(intAt(row, "ftm"), intAt(row, "fta")))
}

func fantasyPoints(row store.Row) float64 {
	line := fantasy.LineFromInts(
		intAt(row, "pts"), intAt(row, "reb"), intAt(row, "ast"),
		intAt(row, "stl"), intAt(row, "blk"), intAt(row, "tov"),
	)
	return fantasy.Round2(fantasy.Score(line))
}

func intAt(row store.Row, col string) *int {
	if n, ok := row[col].(int); ok {
		return &n
	}
	return nil
}
