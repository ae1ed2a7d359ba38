package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tani-io/tani/internal/model"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	return pb.GetCounter().GetValue()
}

func TestObservers(t *testing.T) {
	m := NewForTesting()

	m.ObserveResolve(model.LevelProvince)
	m.ObserveResolve(model.LevelProvince)
	m.ObserveResolve(model.LevelNotFound)
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveChat("normal_mode")

	assert.Equal(t, 2.0, counterValue(t, m.Resolves.WithLabelValues("provinsi")))
	assert.Equal(t, 1.0, counterValue(t, m.Resolves.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, counterValue(t, m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, counterValue(t, m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, counterValue(t, m.ChatRequests.WithLabelValues("normal_mode")))
}

func TestMiddleware_RoutePattern(t *testing.T) {
	m := NewForTesting()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/charts/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for range 2 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/climate", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, counterValue(t, 
		m.HTTPRequests.WithLabelValues("/api/charts/{name}", http.MethodGet, "418")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := NewForTesting()
	m.ObserveResolve(model.LevelNation)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tani_region_resolutions_total{level="nasional"} 1`)
	assert.NotNil(t, m.Registry())
}
