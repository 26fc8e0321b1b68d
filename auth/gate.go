package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// Identity headers set on requests forwarded with ContinueWithIdentity.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// Redirect targets used by the gate.
const (
	LoginPath     = "/login"
	SignupPath    = "/signup"
	DashboardPath = "/dashboard"
	FromParam     = "from"
)

// DecisionKind enumerates the outcomes of a gate evaluation.
type DecisionKind int

const (
	Continue DecisionKind = iota
	ContinueWithIdentity
	RedirectToLogin
	RedirectToDashboard
	RedirectToLoginClearSession
)

func (k DecisionKind) String() string {
	switch k {
	case Continue:
		return "continue"
	case ContinueWithIdentity:
		return "continue_with_identity"
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToDashboard:
		return "redirect_dashboard"
	case RedirectToLoginClearSession:
		return "redirect_login_clear_session"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating one request. Only the fields that
// belong to Kind are populated.
type Decision struct {
	Kind DecisionKind

	// From is the original path for RedirectToLogin.
	From string

	// Principal and Headers are set for ContinueWithIdentity. Headers is a
	// fresh map owned by the caller.
	Principal Principal
	Headers   http.Header

	// Err is the decode failure behind RedirectToLoginClearSession.
	Err error
}

// Location returns the redirect target for redirect decisions and "" for
// pass-through decisions.
func (d Decision) Location() string {
	switch d.Kind {
	case RedirectToLogin:
		return LoginPath + "?" + url.Values{FromParam: {d.From}}.Encode()
	case RedirectToDashboard:
		return DashboardPath
	case RedirectToLoginClearSession:
		return LoginPath
	default:
		return ""
	}
}

// ClearsSession reports whether the caller must delete the session cookie.
func (d Decision) ClearsSession() bool {
	return d.Kind == RedirectToLoginClearSession
}

// Gate evaluates requests against a PathClassifier and the session cookie.
// A Gate holds no mutable state; one value serves all requests.
type Gate struct {
	classifier *PathClassifier
}

// NewGate returns a gate using classifier. A nil classifier falls back to
// DefaultPublicPaths with prefix matching.
func NewGate(classifier *PathClassifier) *Gate {
	if classifier == nil {
		classifier = NewPathClassifier(DefaultPublicPaths, MatchPrefix)
	}
	return &Gate{classifier: classifier}
}

// Classifier returns the gate's path classifier.
func (g *Gate) Classifier() *PathClassifier {
	return g.classifier
}

// Evaluate decides what happens to r. It reads only the path and the Cookie
// header, performs no I/O and never panics.
func (g *Gate) Evaluate(r *http.Request) Decision {
	path := requestPath(r)
	if g.classifier.IsPublic(path) {
		return Decision{Kind: Continue}
	}

	raw, ok := SessionCookieValue(r)
	if !ok {
		return Decision{Kind: RedirectToLogin, From: path}
	}

	res := DecodeSession(raw)
	if res.IsError() {
		return Decision{Kind: RedirectToLoginClearSession, Err: res.Error()}
	}
	p := res.MustGet()

	if path == LoginPath || path == SignupPath {
		return Decision{Kind: RedirectToDashboard}
	}

	h := make(http.Header, 2)
	h.Set(HeaderUserID, p.ID)
	h.Set(HeaderUserRole, p.Role)
	return Decision{Kind: ContinueWithIdentity, Principal: p, Headers: h}
}

// requestPath is the path as it appeared on the wire. Percent-encoding is
// kept so an encoded separator cannot turn into a public prefix, and the
// redirect's from value matches what the client sent.
func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.EscapedPath()
}

// SessionCookieValue returns the raw user_session value from r's Cookie
// headers. Unlike (*http.Request).Cookie it does not drop values containing
// characters outside the cookie-octet set, so a corrupt session is still
// seen as present and can be cleared. A present but empty value counts as
// absent.
func SessionCookieValue(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, line := range r.Header.Values("Cookie") {
		for part := range strings.SplitSeq(line, ";") {
			name, value, found := strings.Cut(strings.TrimSpace(part), "=")
			if !found || strings.TrimSpace(name) != SessionCookieName {
				continue
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return "", false
			}
			return value, true
		}
	}
	return "", false
}
