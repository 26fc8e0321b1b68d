package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmcleod/marketplace/storage"
)

const internalErrorMessage = "Internal server error"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

// mapError translates store errors into responses. Anything unexpected is
// logged and reported as a generic 500 so store details never leak.
func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded):
		a.logger.LogAttrs(r.Context(), slog.LevelWarn, "store timeout",
			slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeError(w, http.StatusGatewayTimeout, "store timeout")
	default:
		a.logger.LogAttrs(r.Context(), slog.LevelError, "store error",
			slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}
