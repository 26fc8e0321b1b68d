package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jmcleod/marketplace/internal/uuid"
)

// incidentHeader carries the id under which a recovered panic was logged.
const incidentHeader = "X-Incident-Id"

// Recoverer turns a handler panic into a generic 500 JSON response and logs
// it with an incident id. http.ErrAbortHandler is re-raised so net/http can
// abort the connection as intended.
func (a *API) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			id := uuid.Short()
			a.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
				slog.String("incident_id", id),
				slog.String("request_id", chimw.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			a.metrics.panicsTotal.Inc()

			w.Header().Set(incidentHeader, id)
			writeError(w, http.StatusInternalServerError, internalErrorMessage)
		}()
		next.ServeHTTP(w, r)
	})
}
