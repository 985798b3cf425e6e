package seed

import (
	"context"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/fantasy"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/reconcile"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// ESPN section labels and the column prefixes they are stored under.
const (
	espnStatsSection   = "2025 Statistics"
	espnStatsPrefix    = "stats_2025"
	espnProjSection    = "2026 Projections"
	espnProjPrefix     = "proj_2026"
	espnOutlookField   = "2026 Outlook"
	espnOutlookColumn  = "outlook_2026"
	espnFantasyColumn  = espnProjPrefix + "_fantasy_pts"
	espnMaxOutlookRune = 4000
)

var projectionConflict = []string{"player_id"}

// espnStats maps ESPN column headers to column suffixes.
var espnStats = []column{
	{"gp", "GP", intCol},
	{"min", "MIN", floatCol},
	{"fg_pct", "FG%", floatCol},
	{"ft_pct", "FT%", floatCol},
	{"3pm", "3PM", floatCol},
	{"reb", "REB", floatCol},
	{"ast", "AST", floatCol},
	{"ato", "A/TO", floatCol},
	{"stl", "STL", floatCol},
	{"blk", "BLK", floatCol},
	{"to", "TO", floatCol},
	{"pts", "PTS", floatCol},
}

// ImportProjections reconciles ESPN projection records by exact name and
// upserts one row per matched player.
func (im *Importer) ImportProjections(ctx context.Context, recs []model.ExternalRecord) (Result, error) {
	players, err := im.LoadRegistry(ctx)
	if err != nil {
		return Result{}, err
	}
	r := reconcile.NewReconciler(reconcile.BuildIndex(players, reconcile.DefaultAliases), reconcile.ExactOnly)

	pending := make([]Pending, 0, len(recs))
	for _, m := range r.ReconcileAll(recs) {
		var row store.Row
		if m.Matched() {
			row = projectionRow(m)
		}
		pending = append(pending, FromMatch(m, row))
	}
	return im.pipeline("espn_projections").Upsert(ctx, config.ProjectionsTable, pending, projectionConflict), nil
}

func projectionRow(m model.MatchResult) store.Row {
	rec := m.Record
	row := store.Row{
		"player_id":        m.Player.ID,
		"match_confidence": m.Confidence,
		"match_method":     string(m.Method),
	}
	row.Set("espn_name", normalize.ToCleanString(rec.Name, 100))
	row.Set("espn_team", normalize.ToCleanString(rec.Team, 10))
	row.Set("espn_position", normalize.ToCleanString(rec.Position, 10))

	addSection(row, espnStatsPrefix, rec.Fields.Section(espnStatsSection))
	proj := rec.Fields.Section(espnProjSection)
	addSection(row, espnProjPrefix, proj)
	if proj != nil {
		line := fantasy.LineFromFloats(
			normalize.ToFloat(proj["PTS"]), normalize.ToFloat(proj["REB"]), normalize.ToFloat(proj["AST"]),
			normalize.ToFloat(proj["STL"]), normalize.ToFloat(proj["BLK"]), normalize.ToFloat(proj["TO"]),
		)
		row[espnFantasyColumn] = fantasy.Round2(fantasy.Score(line))
	}
	row.Set(espnOutlookColumn, normalize.ToCleanString(rec.Fields[espnOutlookField], espnMaxOutlookRune))
	return row
}

func addSection(row store.Row, prefix string, section model.Fields) {
	if section == nil {
		return
	}
	prefixed := make([]column, len(espnStats))
	for i, c := range espnStats {
		prefixed[i] = column{name: prefix + "_" + c.name, src: c.src, kind: c.kind}
	}
	copyColumns(row, section, prefixed)
}
