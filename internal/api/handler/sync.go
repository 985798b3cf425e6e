package handler

import (
	"errors"
	"net/http"

	"github.com/albapepper/hoopgeek-data/internal/api/respond"
	"github.com/albapepper/hoopgeek-data/internal/seed"
)

// SyncPlayers refreshes the registry from the stats API.
// @Summary Sync players
// @Description Runs the registry sync and returns its outcome counts. Only one sync runs at a time.
// @Tags players
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 409 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /sync-players [post]
func (h *Handler) SyncPlayers(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "SYNC_UNAVAILABLE", "Player sync is not configured")
		return
	}
	season := r.URL.Query().Get("season")
	if season == "" {
		season = h.season
	}
	res, err := h.syncer.TrySyncPlayers(r.Context(), season)
	if errors.Is(err, seed.ErrSyncRunning) {
		respond.WriteError(w, http.StatusConflict, "SYNC_RUNNING", "A player sync is already running")
		return
	}
	if err != nil {
		h.logger.Error("player sync failed", "season", season, "error", err)
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "SYNC_FAILED", "Player sync failed", err.Error())
		return
	}
	if res.Total() == 0 && len(res.FetchFailures) > 0 {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "UPSTREAM_FAILED", "Stats API request failed", res.FetchFailures[0])
		return
	}

	dropped := h.cache.InvalidatePrefix("players:") + h.cache.InvalidatePrefix("stats:")
	h.logger.Info("player sync finished", "season", season, "summary", res.Summary(), "cache_dropped", dropped)

	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"season":        season,
		"players_count": res.Imported + res.Updated,
		"imported":      res.Imported,
		"updated":       res.Updated,
		"skipped":       res.Skipped,
		"errors":        res.Errors,
		"summary":       res.Summary(),
		"failures":      res.FailureMessages(),
	})
}
