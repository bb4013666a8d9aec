package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the HTML routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET "+setupPath, h.Setup)
	mux.HandleFunc("GET "+setupFormPath, h.Setup)
}
