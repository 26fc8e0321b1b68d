package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmcleod/marketplace/auth"
)

// GateEvent identifies a gate outcome worth logging.
type GateEvent string

const (
	GateSessionMissing    GateEvent = "session_missing"
	GateSessionMalformed  GateEvent = "session_malformed"
	GateDashboardBounce   GateEvent = "dashboard_bounce"
	GateIdentityForwarded GateEvent = "identity_forwarded"
)

// gateLogger wraps slog.Logger for structured gate logging. A malformed
// session is the only event logged at error level; the rest are routine.
type gateLogger struct {
	logger *slog.Logger
}

func newGateLogger(logger *slog.Logger) *gateLogger {
	return &gateLogger{
		logger: logger.With("component", "gate"),
	}
}

func (gl *gateLogger) log(event GateEvent, r *http.Request, d auth.Decision) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	switch event {
	case GateSessionMalformed:
		level = slog.LevelError
		if d.Err != nil {
			attrs = append(attrs, slog.String("reason", d.Err.Error()))
		}
	case GateIdentityForwarded:
		attrs = append(attrs,
			slog.String("user_id", d.Principal.ID),
			slog.String("role", d.Principal.Role),
		)
	}
	gl.logger.LogAttrs(r.Context(), level, "gate", attrs...)
}
