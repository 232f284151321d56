// Package web serves the browser viewer: an upload page that renders the
// converted mesh with three.js.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*.html static/*.js static/*.css
var assets embed.FS

// Static returns a handler for the viewer's assets, to be mounted under
// /static/ with the prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Index serves the viewer page.
func Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := assets.ReadFile("static/index.html")
		if err != nil {
			http.Error(w, "viewer unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}
