package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jmcleod/marketplace/auth"
	"github.com/jmcleod/marketplace/storage/memory"
)

type recordedSpan struct {
	name  string
	attrs map[attribute.Key]attribute.Value
	start time.Time
}

type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []recordedSpan
}

func (rt *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range cfg.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	rt.mu.Lock()
	rt.spans = append(rt.spans, recordedSpan{name: name, attrs: attrs, start: cfg.Timestamp()})
	rt.mu.Unlock()
	return rt.Tracer.Start(ctx, name, opts...)
}

type recordingProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return p.tracer
}

// echoIdentity reports the identity headers and context principal the
// handler received.
func echoIdentity(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":       r.Header.Get(auth.HeaderUserID),
		"role":          r.Header.Get(auth.HeaderUserRole),
		"has_principal": ok,
		"principal_id":  p.ID,
	})
}

func sessionCookie(t *testing.T, id, role string) string {
	t.Helper()
	v, err := auth.EncodeSession(auth.Principal{ID: id, Role: role})
	require.NoError(t, err)
	return auth.SessionCookieName + "=" + v
}

func serveGate(t *testing.T, a *API, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.GateMiddleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rec, req)
	return rec
}

func decodeEcho(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestGateMiddlewareForwardsIdentity(t *testing.T) {
	a := New(memory.NewCatalog(), WithLogger(discardLogger()))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Cookie", sessionCookie(t, "42", "seller"))

	rec := serveGate(t, a, req)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeEcho(t, rec)
	assert.Equal(t, "42", out["user_id"])
	assert.Equal(t, "seller", out["role"])
	assert.Equal(t, true, out["has_principal"])
	assert.Equal(t, "42", out["principal_id"])
}

func TestGateMiddlewareOverridesSpoofedIdentity(t *testing.T) {
	a := New(memory.NewCatalog(), WithLogger(discardLogger()))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Cookie", sessionCookie(t, "7", "buyer"))
	req.Header.Set(auth.HeaderUserID, "1")
	req.Header.Set(auth.HeaderUserRole, "admin")

	out := decodeEcho(t, serveGate(t, a, req))
	assert.Equal(t, "7", out["user_id"])
	assert.Equal(t, "buyer", out["role"])
	// The caller's request is left untouched.
	assert.Equal(t, "1", req.Header.Get(auth.HeaderUserID))
}

func TestGateMiddlewareStripsIdentityOnPassThrough(t *testing.T) {
	a := New(memory.NewCatalog(), WithLogger(discardLogger()))
	for _, path := range []string{"/", "/login", "/api/locations", "/public/robots.txt"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set(auth.HeaderUserID, "1")
			req.Header.Set(auth.HeaderUserRole, "admin")

			rec := serveGate(t, a, req)
			require.Equal(t, http.StatusOK, rec.Code)
			out := decodeEcho(t, rec)
			assert.Equal(t, "", out["user_id"])
			assert.Equal(t, "", out["role"])
			assert.Equal(t, false, out["has_principal"])
		})
	}
}

func TestGateMiddlewareRedirectsMissingSession(t *testing.T) {
	a := New(memory.NewCatalog(), WithLogger(discardLogger()))
	rec := serveGate(t, a, httptest.NewRequest(http.MethodGet, "/dashboard/listings?tab=2", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?from=%2Fdashboard%2Flistings", rec.Header().Get("Location"))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestGateMiddlewareClearsMalformedSession(t *testing.T) {
	var buf bytes.Buffer
	a := New(memory.NewCatalog(), WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Cookie", auth.SessionCookieName+`={"id":`)

	rec := serveGate(t, a, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, string(GateSessionMalformed), entry["event"])
	assert.NotEmpty(t, entry["reason"])
}

func TestGateMiddlewareSecureClearCookie(t *testing.T) {
	a := New(memory.NewCatalog(), WithLogger(discardLogger()), WithSecureCookies(true))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Cookie", auth.SessionCookieName+"=not-json")

	cookies := serveGate(t, a, req).Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestGateMiddlewareBouncesSignedInVisitors(t *testing.T) {
	// Entry pages are only bounced when they are not public.
	gate := auth.NewGate(auth.NewPathClassifier([]string{"/", "/forgot-password"}, auth.MatchPrefix))
	a := New(memory.NewCatalog(), WithLogger(discardLogger()), WithGate(gate))
	for _, path := range []string{"/login", "/signup"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Cookie", sessionCookie(t, "1", "admin"))
		rec := serveGate(t, a, req)
		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code, path)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"), path)
	}
}

func TestGateMiddlewareRecordsSpan(t *testing.T) {
	tracer := &recordingTracer{}
	a := New(memory.NewCatalog(),
		WithLogger(discardLogger()),
		WithTracerProvider(&recordingProvider{tracer: tracer}),
	)

	before := time.Now()
	serveGate(t, a, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	serveGate(t, a, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	tracer.mu.Lock()
	defer tracer.mu.Unlock()
	require.Len(t, tracer.spans, 1, "excluded paths are not evaluated")
	span := tracer.spans[0]
	assert.Equal(t, "auth.gate", span.name)
	assert.Equal(t, "redirect_login", span.attrs["auth.decision"].AsString())
	assert.Equal(t, "/dashboard", span.attrs["http.route.path"].AsString())
	assert.False(t, span.start.Before(before))
}

func TestRequestIsSecure(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, requestIsSecure(r))

	r.Header.Set("X-Forwarded-Proto", "HTTPS")
	assert.True(t, requestIsSecure(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Forwarded", "for=192.0.2.60;proto=https;by=203.0.113.43")
	assert.True(t, requestIsSecure(r))

	r = httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	assert.True(t, requestIsSecure(r))
}

func TestSecurityHeadersHSTS(t *testing.T) {
	a := New(memory.NewCatalog(), WithLogger(discardLogger()))
	h := a.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	a = New(memory.NewCatalog(), WithLogger(discardLogger()), WithSecureCookies(true))
	h = a.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}
