package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/marketplace/auth"
	"github.com/jmcleod/marketplace/internal/config"
)

func TestNewGate_LogsClassifierConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.MatchMode = auth.MatchSegment.String()
	cfg.Auth.PublicPaths = []string{"/", "/login", "/help"}

	var buf bytes.Buffer
	gate, err := newGate(cfg, slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)
	assert.Equal(t, auth.MatchSegment, gate.Classifier().Mode())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gate configured", entry["msg"])
	assert.Equal(t, "segment", entry["match_mode"])
	assert.Equal(t, []any{"/", "/login", "/help"}, entry["public_paths"])

	// Segment mode: a lookalike of a public path is protected.
	d := gate.Evaluate(httptest.NewRequest(http.MethodGet, "/helpdesk", nil))
	assert.Equal(t, auth.RedirectToLogin, d.Kind)
}

func TestNewGate_RejectsUnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.MatchMode = "regex"
	_, err := newGate(cfg, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
