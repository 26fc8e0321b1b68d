package api

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jmcleod/marketplace/auth"
)

// GateMiddleware evaluates every request that is not excluded by the
// exclusion matcher and carries out the gate's decision: forward, forward
// with identity headers, or redirect (clearing a corrupt session first).
func (a *API) GateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.excluded.Excluded(r.URL.EscapedPath()) {
			next.ServeHTTP(w, withoutIdentityHeaders(r))
			return
		}

		start := time.Now()
		d := a.gate.Evaluate(r)
		_, span := a.tracer.Start(r.Context(), "auth.gate",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithTimestamp(start),
			trace.WithAttributes(
				attribute.String("http.route.path", r.URL.Path),
				attribute.String("auth.decision", d.Kind.String()),
			),
		)
		span.End()
		a.metrics.recordDecision(d.Kind)

		switch d.Kind {
		case auth.Continue:
			next.ServeHTTP(w, withoutIdentityHeaders(r))

		case auth.ContinueWithIdentity:
			fwd := r.Clone(auth.WithPrincipal(r.Context(), d.Principal))
			for k, v := range d.Headers {
				fwd.Header[k] = v
			}
			a.gateLog.log(GateIdentityForwarded, r, d)
			next.ServeHTTP(w, fwd)

		case auth.RedirectToLoginClearSession:
			a.gateLog.log(GateSessionMalformed, r, d)
			clearSessionCookie(w, a.secureCookies || requestIsSecure(r))
			http.Redirect(w, r, d.Location(), http.StatusTemporaryRedirect)

		case auth.RedirectToLogin:
			a.gateLog.log(GateSessionMissing, r, d)
			http.Redirect(w, r, d.Location(), http.StatusTemporaryRedirect)

		case auth.RedirectToDashboard:
			a.gateLog.log(GateDashboardBounce, r, d)
			http.Redirect(w, r, d.Location(), http.StatusTemporaryRedirect)

		default:
			writeError(w, http.StatusInternalServerError, internalErrorMessage)
		}
	})
}

// withoutIdentityHeaders drops client-supplied identity headers so that
// handlers only ever see values the gate set.
func withoutIdentityHeaders(r *http.Request) *http.Request {
	if r.Header.Get(auth.HeaderUserID) == "" && r.Header.Get(auth.HeaderUserRole) == "" {
		return r
	}
	fwd := r.Clone(r.Context())
	fwd.Header.Del(auth.HeaderUserID)
	fwd.Header.Del(auth.HeaderUserRole)
	return fwd
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
