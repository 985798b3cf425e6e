package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/hoopgeek-data/internal/api/respond"
	"github.com/albapepper/hoopgeek-data/internal/cache"
	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// GetPlayerStats returns a player with career and per-season totals.
// @Summary Player stats
// @Tags players
// @Produce json
// @Param id path int true "Registry player id"
// @Success 200 {object} map[string]any
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /player/{id}/stats [get]
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_ID", "player id must be a positive integer", raw)
		return
	}

	h.serveCached(w, r, fmt.Sprintf("stats:%d", id), h.cacheTTL(cache.TTLPlayerStats), func() (any, error) {
		ctx := r.Context()
		players, err := h.store.Select(ctx, config.PlayersTable, store.Query{
			Filter: map[string]any{"id": id},
			Limit:  1,
		})
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", id, err)
		}
		if len(players) == 0 {
			return nil, notFound{what: "player"}
		}

		byPlayer := map[string]any{"player_id": id}
		career, err := h.store.Select(ctx, config.CareerTotalsTable, store.Query{Filter: byPlayer, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("career totals %d: %w", id, err)
		}
		seasons, err := h.store.Select(ctx, config.SeasonTotalsTable, store.Query{
			Filter:  byPlayer,
			OrderBy: []string{"season_id"},
		})
		if err != nil {
			return nil, fmt.Errorf("season totals %d: %w", id, err)
		}

		body := map[string]any{
			"player":  players[0],
			"career":  nil,
			"seasons": seasons,
		}
		if len(career) > 0 {
			body["career"] = career[0]
		}
		if seasons == nil {
			body["seasons"] = []store.Row{}
		}
		return body, nil
	})
}
