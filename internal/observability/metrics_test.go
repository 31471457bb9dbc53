package observability_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/internal/observability"
	_ "github.com/atrium-hq/atrium/testing"
)

func scrape(t *testing.T, metrics *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddlewareCountsRequestsByRoute(t *testing.T) {
	metrics := observability.NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, target := range []string{"/orders/1", "/orders/2"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	body := scrape(t, metrics)
	assert.Contains(t, body, `atrium_http_requests_total{code="204",route="/orders/{id}"} 2`)
	assert.Contains(t, body, "atrium_http_request_duration_seconds_count")
}

func TestObserveDecisionAndRefresh(t *testing.T) {
	metrics := observability.NewMetrics()

	metrics.ObserveDecision("allow")
	metrics.ObserveDecision("allow")
	metrics.ObserveDecision("forbidden")
	metrics.ObserveRefresh("success")
	metrics.ObserveRefresh("failure")

	body := scrape(t, metrics)
	assert.Contains(t, body, `atrium_authz_decisions_total{outcome="allow"} 2`)
	assert.Contains(t, body, `atrium_authz_decisions_total{outcome="forbidden"} 1`)
	assert.Contains(t, body, `atrium_token_refresh_total{result="success"} 1`)
	assert.Contains(t, body, `atrium_token_refresh_total{result="failure"} 1`)
}

func TestNilMetricsAreInert(t *testing.T) {
	var metrics *observability.Metrics

	metrics.ObserveDecision("allow")
	metrics.ObserveRefresh("success")

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScrapeOmitsGoRuntimeCollectors(t *testing.T) {
	body := scrape(t, observability.NewMetrics())
	assert.False(t, strings.Contains(body, "go_goroutines"))
}
