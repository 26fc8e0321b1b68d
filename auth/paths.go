package auth

import (
	"fmt"
	"strings"
)

// MatchMode selects how public path entries are compared with request paths.
type MatchMode int

const (
	// MatchPrefix treats an entry as a plain starts-with test, so "/login"
	// also exempts "/login-promo".
	MatchPrefix MatchMode = iota
	// MatchSegment requires the entry to be the whole path or to be followed
	// by a "/" segment boundary.
	MatchSegment
)

func (m MatchMode) String() string {
	switch m {
	case MatchPrefix:
		return "prefix"
	case MatchSegment:
		return "segment"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode converts a config string into a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "prefix":
		return MatchPrefix, nil
	case "segment":
		return MatchSegment, nil
	default:
		return 0, fmt.Errorf("unknown path match mode %q", s)
	}
}

// DefaultPublicPaths are reachable without a session.
var DefaultPublicPaths = []string{
	"/",
	"/login",
	"/signup",
	"/forgot-password",
	"/api/auth/login",
	"/api/auth/signup",
}

// PathClassifier decides whether a request path is public. It is immutable
// after construction and safe for concurrent use.
type PathClassifier struct {
	prefixes []string
	mode     MatchMode
}

// NewPathClassifier copies prefixes. Empty entries and entries that do not
// start with "/" are ignored so a bad config line can never open every path.
func NewPathClassifier(prefixes []string, mode MatchMode) *PathClassifier {
	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if strings.HasPrefix(p, "/") {
			kept = append(kept, p)
		}
	}
	return &PathClassifier{prefixes: kept, mode: mode}
}

// Prefixes returns a copy of the configured public entries.
func (c *PathClassifier) Prefixes() []string {
	return append([]string(nil), c.prefixes...)
}

// Mode reports the configured match mode.
func (c *PathClassifier) Mode() MatchMode {
	return c.mode
}

// IsPublic reports whether path may be served without a session. Anything
// that is not clearly public, including empty or relative paths, is
// protected.
//
// The root entry "/" only ever matches "/" itself: as a prefix it would
// exempt every path.
func (c *PathClassifier) IsPublic(path string) bool {
	if path == "" || path[0] != '/' {
		return false
	}
	for _, p := range c.prefixes {
		if p == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if !strings.HasPrefix(path, p) {
			continue
		}
		if c.mode == MatchPrefix || len(path) == len(p) || path[len(p)] == '/' || strings.HasSuffix(p, "/") {
			return true
		}
	}
	return false
}

// ExclusionMatcher identifies paths that never reach the gate: framework
// assets, the favicon, the public directory and API routes outside
// /api/auth. It mirrors the transport-level matcher that sits in front of
// the in-gate public path check.
type ExclusionMatcher struct {
	prefixes []string
}

// DefaultExcludedPrefixes are asset locations served without gating.
var DefaultExcludedPrefixes = []string{
	"/static/",
	"/image/",
	"/favicon.ico",
	"/public/",
}

// NewExclusionMatcher builds a matcher over the given asset prefixes.
func NewExclusionMatcher(prefixes []string) *ExclusionMatcher {
	return &ExclusionMatcher{prefixes: append([]string(nil), prefixes...)}
}

// Excluded reports whether path bypasses the gate entirely.
func (m *ExclusionMatcher) Excluded(path string) bool {
	for _, p := range m.prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	if rest, ok := strings.CutPrefix(path, "/api/"); ok {
		return !strings.HasPrefix(rest, "auth")
	}
	return false
}
