package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-openapi/runtime/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jmcleod/marketplace/auth"
	"github.com/jmcleod/marketplace/storage"
)

const tracerName = "github.com/jmcleod/marketplace/api"

// API holds the dependencies needed by the gate middleware and the HTTP
// handlers.
type API struct {
	catalog       storage.Catalog
	gate          *auth.Gate
	excluded      *auth.ExclusionMatcher
	logger        *slog.Logger
	gateLog       *gateLogger
	registry      *prometheus.Registry
	metrics       *metrics
	tracer        trace.Tracer
	secureCookies bool
	assets        http.Handler
}

//go:embed openapi.yaml
var openapiDoc []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithGate replaces the default gate (DefaultPublicPaths, prefix matching).
func WithGate(g *auth.Gate) Option {
	return func(a *API) {
		a.gate = g
	}
}

// WithExclusionMatcher replaces the default asset/API exclusion matcher.
func WithExclusionMatcher(m *auth.ExclusionMatcher) Option {
	return func(a *API) {
		a.excluded = m
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with and
// served from. Default: a fresh registry per API.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *API) {
		a.registry = reg
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for gate spans.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *API) {
		a.tracer = tp.Tracer(tracerName)
	}
}

// WithSecureCookies forces the Secure attribute on cookies the API writes,
// regardless of how the request arrived.
func WithSecureCookies(secure bool) Option {
	return func(a *API) {
		a.secureCookies = secure
	}
}

// WithAssets mounts h for /public/* and /favicon.ico.
func WithAssets(h http.Handler) Option {
	return func(a *API) {
		a.assets = h
	}
}

// New creates a new API instance.
func New(catalog storage.Catalog, opts ...Option) *API {
	a := &API{catalog: catalog}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if a.gate == nil {
		a.gate = auth.NewGate(nil)
	}
	if a.excluded == nil {
		a.excluded = auth.NewExclusionMatcher(auth.DefaultExcludedPrefixes)
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(tracerName)
	}
	a.gateLog = newGateLogger(a.logger)
	a.metrics = newMetrics(a.registry)
	return a
}

// Router returns a chi.Router with every route mounted. Health and metrics
// endpoints sit outside the gate; everything else passes through it.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.instrument)
	r.Use(a.Recoverer)
	r.Use(a.SecurityHeaders)

	// Unmatched paths are still gated so probing never leaks which
	// protected routes exist.
	r.NotFound(a.GateMiddleware(http.HandlerFunc(notFound)).ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(a.GateMiddleware)

		r.Get("/", a.Home)
		r.Get("/login", a.EntryPage("login"))
		r.Get("/signup", a.EntryPage("signup"))
		r.Get("/forgot-password", a.EntryPage("forgot-password"))
		r.Get("/dashboard", a.Dashboard)

		r.Route("/api", func(r chi.Router) {
			r.NotFound(notFound)
			r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/yaml")
				w.Write(openapiDoc)
			})
			r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
				SpecURL: "/api/openapi.yaml",
				Path:    "api/docs",
			}, nil))
			r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
				SpecURL: "/api/openapi.yaml",
				Path:    "api/redoc",
			}, nil))

			r.Get("/locations", a.ListLocations)
			r.Get("/categories", a.ListCategories)
			r.Get("/categories/{slug}", a.GetCategory)
			r.Get("/conditions", a.ListConditions)
		})

		if a.assets != nil {
			r.Handle("/public/*", a.assets)
			r.Handle("/favicon.ico", a.assets)
		}
	})

	return r
}
