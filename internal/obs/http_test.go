package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ticket-checkout/internal/obs"
)

func TestHTTPMetricsUseRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("checkout", []float64{1, 10}, registry)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/v1/checkout/fee", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/fee?price=1", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/api/v1/checkout/fee", "204")))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.Latency))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestNewHTTPMetricsReusesRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("checkout", nil, registry)
	second := obs.NewHTTPMetrics("checkout", nil, registry)
	require.Same(t, first.Requests, second.Requests)
}

func TestParseBuckets(t *testing.T) {
	require.Nil(t, obs.ParseBuckets(""))
	require.Equal(t, []float64{1, 5, 10}, obs.ParseBuckets("10, 5,abc,-2,1,5"))
}

func TestQuoteMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewQuoteMetrics("checkout", registry)

	metrics.ObserveItem("simple", 0)
	metrics.ObserveItem("multi_day_with_types", 2)
	metrics.ObserveTotal(10_700)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.QuotesTotal.WithLabelValues("simple", "priced")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.QuotesTotal.WithLabelValues("multi_day_with_types", "partial")))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.UnresolvedLines.WithLabelValues("multi_day_with_types")))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.QuoteAmount))

	again := obs.NewQuoteMetrics("checkout", registry)
	require.Same(t, metrics.QuotesTotal, again.QuotesTotal)
}

func TestNilQuoteMetricsIsNoop(t *testing.T) {
	var metrics *obs.QuoteMetrics
	metrics.ObserveItem("simple", 3)
	metrics.ObserveTotal(1)
}
