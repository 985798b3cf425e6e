package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Manager) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordOutcome(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordOutcome("players", "imported")
	m.RecordOutcome("players", "imported")
	m.RecordOutcome("players", "error")

	body := scrape(t, m)
	assert.Contains(t, body, `hoopgeek_ingest_records_total{outcome="imported",pipeline="players"} 2`)
	assert.Contains(t, body, `hoopgeek_ingest_records_total{outcome="error",pipeline="players"} 1`)
}

func TestObserveRun(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRun("hoopshype_salaries", 3*time.Second)

	body := scrape(t, m)
	assert.Contains(t, body, `hoopgeek_ingest_run_duration_seconds_count{pipeline="hoopshype_salaries"} 1`)
	assert.Contains(t, body, `hoopgeek_ingest_run_duration_seconds_sum{pipeline="hoopshype_salaries"} 3`)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	t.Parallel()

	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/player/{id}/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/player/7/stats", "/player/8/stats", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `hoopgeek_http_requests_total{method="GET",route="/player/{id}/stats",status="404"} 2`)
	assert.NotContains(t, body, `route="/player/7/stats"`)
}
