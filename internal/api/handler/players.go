package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/albapepper/hoopgeek-data/internal/api/respond"
	"github.com/albapepper/hoopgeek-data/internal/cache"
	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

const maxPageLimit = 1000

var playerListColumns = []string{
	"id", "nba_player_id", "name", "first_name", "last_name",
	"team_name", "team_abbreviation", "position", "is_active", "is_rookie", "years_pro",
}

// ListPlayers returns registry players.
// @Summary List players
// @Description Returns registry players ordered by id. Without limit every player is returned.
// @Tags players
// @Produce json
// @Param active query bool false "Only active (true) or inactive (false) players"
// @Param limit query int false "Page size (max 1000)"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} map[string]any
// @Success 304
// @Failure 400 {object} respond.ErrorResponse
// @Router /players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := store.Query{Columns: playerListColumns, OrderBy: []string{"id"}}

	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "active must be true or false", v)
			return
		}
		q.Filter = map[string]any{"is_active": active}
	}
	limit, err := intParam(r, "limit", 0, maxPageLimit)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "invalid limit", err.Error())
		return
	}
	offset, err := intParam(r, "offset", 0, -1)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "invalid offset", err.Error())
		return
	}
	q.Limit, q.Offset = limit, offset

	key := fmt.Sprintf("players:active=%v:limit=%d:offset=%d", q.Filter["is_active"], limit, offset)
	h.serveCached(w, r, key, h.cacheTTL(cache.TTLRegistry), func() (any, error) {
		var (
			rows []store.Row
			err  error
		)
		if limit > 0 {
			rows, err = h.store.Select(r.Context(), config.PlayersTable, q)
		} else {
			rows, err = store.All(r.Context(), h.store, config.PlayersTable, q, store.DefaultPageSize)
		}
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []store.Row{}
		}
		return map[string]any{"players": rows, "count": len(rows)}, nil
	})
}

// intParam reads a non-negative integer query parameter. max < 0 means
// unbounded.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	if max >= 0 && n > max {
		return 0, fmt.Errorf("%s must be at most %d", name, max)
	}
	return n, nil
}
