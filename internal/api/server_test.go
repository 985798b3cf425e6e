package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopgeek-data/internal/api/handler"
	"github.com/albapepper/hoopgeek-data/internal/cache"
	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/metrics"
	"github.com/albapepper/hoopgeek-data/internal/seed"
	"github.com/albapepper/hoopgeek-data/internal/store"
	"github.com/albapepper/hoopgeek-data/internal/store/memstore"
)

type fakeDB struct {
	err  error
	size int
}

func (f fakeDB) HealthCheck(context.Context) error { return f.err }

func (f fakeDB) RegistrySize(context.Context) (int, error) { return f.size, f.err }

type fakeSyncer struct {
	res    seed.Result
	err    error
	season string
}

func (f *fakeSyncer) TrySyncPlayers(_ context.Context, season string) (seed.Result, error) {
	f.season = season
	return f.res, f.err
}

type fixture struct {
	router http.Handler
	store  *memstore.Store
	syncer *fakeSyncer
}

func newFixture(t *testing.T, db handler.DB, cfg *config.Config) fixture {
	t.Helper()

	st := memstore.New()
	st.Seed(config.PlayersTable,
		store.Row{"id": 7, "nba_player_id": 203999, "name": "Nikola Jokić", "is_active": true},
		store.Row{"id": 8, "nba_player_id": 1495, "name": "Tim Duncan", "is_active": false},
		store.Row{"id": 9, "nba_player_id": 1641705, "name": "Victor Wembanyama", "is_active": true},
	)
	st.Seed(config.CareerTotalsTable, store.Row{"player_id": 7, "gp": 744, "pts": 15000})
	st.Seed(config.SeasonTotalsTable,
		store.Row{"player_id": 7, "season_id": "2024-25", "gp": 70},
		store.Row{"player_id": 7, "season_id": "2023-24", "gp": 79},
	)

	c := cache.New(true)
	t.Cleanup(c.Close)
	syncer := &fakeSyncer{res: seed.Result{Imported: 2, Updated: 1}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if cfg == nil {
		cfg = &config.Config{CORSAllowOrigins: []string{"*"}}
	}
	h := handler.New(st, db, c, syncer, "2024-25", logger)
	return fixture{router: NewRouter(h, metrics.New(), cfg), store: st, syncer: syncer}
}

func (f fixture) do(t *testing.T, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fakeDB{size: 3}, nil)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	rec = f.do(t, http.MethodGet, "/health/db", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, decode(t, rec)["players"])
}

func TestHealthDB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		db   handler.DB
		want int
	}{
		{"disconnected", fakeDB{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
		{"not configured", nil, http.StatusServiceUnavailable},
		{"connected", fakeDB{}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := newFixture(t, tt.db, nil).do(t, http.MethodGet, "/health/db", nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestListPlayers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fakeDB{}, nil)

	rec := f.do(t, http.MethodGet, "/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	body := decode(t, rec)
	assert.Equal(t, 3.0, body["count"])
	players := body["players"].([]any)
	assert.Equal(t, "Nikola Jokić", players[0].(map[string]any)["name"])

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = f.do(t, http.MethodGet, "/players", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = f.do(t, http.MethodGet, "/players", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestListPlayersParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		code  int
		count float64
	}{
		{"/players?active=true", http.StatusOK, 2},
		{"/players?active=false", http.StatusOK, 1},
		{"/players?limit=2", http.StatusOK, 2},
		{"/players?limit=2&offset=2", http.StatusOK, 1},
		{"/players?active=maybe", http.StatusBadRequest, 0},
		{"/players?limit=5000", http.StatusBadRequest, 0},
		{"/players?offset=-1", http.StatusBadRequest, 0},
	}
	f := newFixture(t, fakeDB{}, nil)
	for _, tt := range tests {
		rec := f.do(t, http.MethodGet, tt.path, nil)
		require.Equal(t, tt.code, rec.Code, tt.path)
		if tt.code == http.StatusOK {
			assert.Equal(t, tt.count, decode(t, rec)["count"], tt.path)
		}
	}
}

func TestPlayerStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fakeDB{}, nil)

	rec := f.do(t, http.MethodGet, "/player/7/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Nikola Jokić", body["player"].(map[string]any)["name"])
	assert.Equal(t, 744.0, body["career"].(map[string]any)["gp"])
	seasons := body["seasons"].([]any)
	require.Len(t, seasons, 2)
	assert.Equal(t, "2023-24", seasons[0].(map[string]any)["season_id"])

	rec = f.do(t, http.MethodGet, "/player/8/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Nil(t, body["career"])
	assert.Empty(t, body["seasons"])

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/player/99/stats", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/player/abc/stats", nil).Code)
}

func TestSyncPlayersInvalidatesCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fakeDB{}, nil)
	f.do(t, http.MethodGet, "/players", nil)
	assert.Equal(t, "HIT", f.do(t, http.MethodGet, "/players", nil).Header().Get("X-Cache"))

	rec := f.do(t, http.MethodPost, "/sync-players?season=2025-26", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 3.0, body["players_count"])
	assert.Equal(t, "2025-26", f.syncer.season)

	assert.Equal(t, "MISS", f.do(t, http.MethodGet, "/players", nil).Header().Get("X-Cache"))
}

func TestSyncPlayersErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fakeDB{}, nil)
	f.syncer.res = seed.Result{FetchFailures: []string{"commonallplayers 2024-25: status 503"}}
	rec := f.do(t, http.MethodPost, "/sync-players", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "2024-25", f.syncer.season)

	f.syncer.res, f.syncer.err = seed.Result{}, errors.New("no stats source configured")
	assert.Equal(t, http.StatusInternalServerError, f.do(t, http.MethodPost, "/sync-players", nil).Code)

	f.syncer.err = seed.ErrSyncRunning
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/sync-players", nil).Code)

	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/sync-players", nil).Code)
}

func TestMetricsAndDocs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fakeDB{}, nil)
	f.do(t, http.MethodGet, "/player/7/stats", nil)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/player/{id}/stats"`)

	rec = f.do(t, http.MethodGet, "/docs/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "HoopGeek Data API")
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fakeDB{}, &config.Config{
		RateLimitEnabled:  true,
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", nil).Code)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
