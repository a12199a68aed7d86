package server

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// registerDashboard serves the embedded monitoring page under
// /dashboard, falling back to index.html for paths that don't match a
// real file.
func registerDashboard(router chi.Router, assets fs.FS) {
	fileServer := http.FileServerFS(assets)

	handler := http.StripPrefix("/dashboard", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if _, err := fs.Stat(assets, path); err != nil {
			r.URL.Path = "/"
		}

		fileServer.ServeHTTP(w, r)
	}))

	router.Get("/dashboard", handler.ServeHTTP)
	router.Get("/dashboard/*", handler.ServeHTTP)
}
