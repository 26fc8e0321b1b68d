// Package web serves the static files shipped inside the binary.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed public/*
var content embed.FS

// PublicPrefix is the URL prefix static files are served under.
const PublicPrefix = "/public/"

// Handler returns an http.Handler that serves the embedded public/ directory
// under PublicPrefix, plus /favicon.ico at the root. Directories are never
// listed; anything that is not a regular embedded file gets a 404.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(content, "public")
	if err != nil {
		return nil, fmt.Errorf("loading embedded public assets: %w", err)
	}
	static := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var name string
		switch {
		case r.URL.Path == "/favicon.ico":
			name = "favicon.ico"
		case strings.HasPrefix(r.URL.Path, PublicPrefix):
			name = strings.TrimPrefix(path.Clean(r.URL.Path), "/public/")
		default:
			http.NotFound(w, r)
			return
		}

		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() || !fs.ValidPath(name) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=86400")
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/" + name
		static.ServeHTTP(w, r2)
	}), nil
}
