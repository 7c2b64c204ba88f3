package handlers

import (
	"net/http"
	"path"
)

// StaticHandler serves the front-end assets from the public directory.
type StaticHandler struct {
	fileServer http.Handler
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{fileServer: http.FileServer(http.Dir(dir))}
}

// ServeHTTP serves static files. Assets get a day of caching; everything
// else, the HTML entry points included, must revalidate.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch path.Ext(r.URL.Path) {
	case ".css", ".js", ".png", ".jpg", ".jpeg", ".svg", ".ico", ".woff", ".woff2":
		w.Header().Set("Cache-Control", "public, max-age=86400")
	default:
		w.Header().Set("Cache-Control", "no-cache")
	}
	h.fileServer.ServeHTTP(w, r)
}
