package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jmcleod/marketplace/auth"
)

const metricsNamespace = "marketplace"

// metrics holds the Prometheus collectors for the HTTP surface and the gate.
type metrics struct {
	gateDecisions   *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	panicsTotal     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	m := &metrics{
		gateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Gate decisions by outcome",
		}, []string{"decision"}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code",
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		panicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Handler panics recovered into 500 responses",
		}),
	}
	// Pre-create every decision series so dashboards see zeros.
	for k := auth.Continue; k <= auth.RedirectToLoginClearSession; k++ {
		m.gateDecisions.WithLabelValues(k.String())
	}
	return m
}

func (m *metrics) recordDecision(k auth.DecisionKind) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(k.String()).Inc()
}

// instrument records request count and latency per chi route pattern. The
// pattern, not the raw path, is used as the label to bound cardinality.
func (a *API) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.metrics.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		a.metrics.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
