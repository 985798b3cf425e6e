// Package handler provides the HTTP handlers of the HoopGeek data API.
// Handlers read through store.Store and cache encoded responses.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/hoopgeek-data/internal/api/respond"
	"github.com/albapepper/hoopgeek-data/internal/cache"
	"github.com/albapepper/hoopgeek-data/internal/seed"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// DB is the database health surface.
type DB interface {
	HealthCheck(ctx context.Context) error
	RegistrySize(ctx context.Context) (int, error)
}

// PlayerSyncer refreshes the player registry. It returns
// seed.ErrSyncRunning while another sync is in progress.
type PlayerSyncer interface {
	TrySyncPlayers(ctx context.Context, season string) (seed.Result, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  store.Store
	db     DB
	cache  *cache.Cache
	syncer PlayerSyncer
	season string
	logger *slog.Logger
	ttl    time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithCacheTTL overrides the per-endpoint cache lifetimes.
func WithCacheTTL(d time.Duration) Option {
	return func(h *Handler) { h.ttl = d }
}

// New creates a Handler. db and syncer may be nil; the endpoints that need
// them then answer 503.
func New(st store.Store, db DB, c *cache.Cache, syncer PlayerSyncer, season string, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New(false)
	}
	h := &Handler{store: st, db: db, cache: c, syncer: syncer, season: season, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) cacheTTL(def time.Duration) time.Duration {
	if h.ttl > 0 {
		return h.ttl
	}
	return def
}

// Root serves API info at /.
// @Summary API root info
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]any
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "HoopGeek Data API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs/",
		"season":  h.season,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": now(),
	})
}

// HealthCheckDB verifies database connectivity and reports the registry
// size.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "not configured",
			"timestamp": now(),
		})
		return
	}
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": now(),
		})
		return
	}
	body := map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": now(),
	}
	if n, err := h.db.RegistrySize(r.Context()); err == nil {
		body["players"] = n
	}
	respond.WriteJSONObject(w, http.StatusOK, body)
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": now(),
	})
}

// serveCached writes a cached body, honouring If-None-Match, or builds,
// caches and writes a fresh one.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, build func() (any, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := build()
	if err != nil {
		var nf notFound
		if errors.As(err, &nf) {
			respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", nf.Error())
			return
		}
		h.logger.Error("query failed", "path", r.URL.Path, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "QUERY_FAILED", "Failed to read data")
		return
	}
	data, err := respond.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Failed to encode response")
		return
	}
	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// notFound makes serveCached answer 404.
type notFound struct{ what string }

func (e notFound) Error() string { return e.what + " not found" }
