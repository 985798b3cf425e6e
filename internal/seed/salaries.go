package seed

import (
	"context"
	"sort"
	"strings"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/reconcile"
	"github.com/albapepper/hoopgeek-data/internal/scrape"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

var salaryConflict = []string{"player_id"}

// ImportSalaries reconciles HoopsHype salary records, falling back to a
// unique last-name match, and upserts one row per matched player. A
// last-name match never takes a player another record matched exactly.
func (im *Importer) ImportSalaries(ctx context.Context, recs []model.ExternalRecord) (Result, error) {
	players, err := im.LoadRegistry(ctx)
	if err != nil {
		return Result{}, err
	}
	r := reconcile.NewReconciler(reconcile.BuildIndex(players, reconcile.DefaultAliases), reconcile.ExactThenLastName)

	pending := make([]Pending, 0, len(recs))
	for _, m := range r.ReconcileBatch(recs) {
		var row store.Row
		if m.Matched() {
			row = salaryRow(m)
			if m.Method == model.MethodLastName {
				im.logger.Info("salary matched by last name",
					"name", m.Record.Name, "player", m.Player.Name, "player_id", m.Player.ID)
			}
		}
		pending = append(pending, FromMatch(m, row))
	}
	return im.pipeline("hoopshype_salaries").Upsert(ctx, config.SalariesTable, pending, salaryConflict), nil
}

func salaryRow(m model.MatchResult) store.Row {
	rec := m.Record
	row := store.Row{
		"player_id":        m.Player.ID,
		"match_confidence": m.Confidence,
		"match_method":     string(m.Method),
	}
	row.Set("player_name", normalize.ToCleanString(rec.Name, 100))
	row.Set("team_name", normalize.ToCleanString(scrape.NormalizeTeam(rec.Team), 100))

	seasons := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		if key, ok := scrape.SeasonKey(k); ok {
			seasons = append(seasons, key)
		}
	}
	sort.Strings(seasons)

	years := 0
	for _, season := range seasons {
		amount := normalize.ParseCurrency(rec.Fields[season])
		if amount != nil {
			years++
		}
		row.Set("salary_"+strings.ReplaceAll(season, "-", "_"), amount)
	}
	row["contract_years_remaining"] = years
	return row
}
