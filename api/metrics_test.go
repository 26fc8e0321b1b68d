package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/marketplace/auth"
	"github.com/jmcleod/marketplace/storage"
	"github.com/jmcleod/marketplace/storage/memory"
)

func TestMetricsDecisionSeriesPreCreated(t *testing.T) {
	m := newMetrics(prometheus.NewRegistry())
	for k := auth.Continue; k <= auth.RedirectToLoginClearSession; k++ {
		assert.Zero(t, testutil.ToFloat64(m.gateDecisions.WithLabelValues(k.String())), k.String())
	}
	assert.Equal(t, 5, testutil.CollectAndCount(m.gateDecisions))
}

func TestMetricsNilCollector(t *testing.T) {
	var m *metrics
	m.recordDecision(auth.Continue)
}

func TestMetricsRecordGateDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(memory.NewSeededCatalog(storage.SampleData()), WithRegistry(reg), WithLogger(discardLogger()))
	router := a.Router()

	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.metrics.gateDecisions.WithLabelValues("redirect_login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.gateDecisions.WithLabelValues("continue")))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.metrics.requestsTotal.WithLabelValues("/dashboard", "307")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.requestsTotal.WithLabelValues("/", "200")))
}

func TestMetricsEndpointExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(memory.NewCatalog(), WithRegistry(reg), WithLogger(discardLogger()))
	router := a.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `marketplace_gate_decisions_total{decision="redirect_login"} 1`)
	assert.True(t, strings.Contains(body, "marketplace_http_request_duration_seconds"))
}
