package handlers

import (
	"net/http"
	"path/filepath"
)

// mediaPrefix is the URL prefix of stored slide images
const mediaPrefix = "/media/showcases/"

// StaticHandler serves the landing page assets and stored slide images
type StaticHandler struct {
	site  http.Handler
	media http.Handler
}

// NewStaticHandler creates a new static handler. Only the showcases
// directory under dataDir is exposed, never the settings file or database.
func NewStaticHandler(staticDir, dataDir string) *StaticHandler {
	return &StaticHandler{
		site:  http.FileServer(http.Dir(staticDir)),
		media: http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(filepath.Join(dataDir, "showcases")))),
	}
}

// ServeSite serves files from the static directory
func (h *StaticHandler) ServeSite(w http.ResponseWriter, r *http.Request) {
	h.site.ServeHTTP(w, r)
}

// ServeMedia serves stored slide images
// GET /media/showcases/{showcase}/slides/{id}.png
func (h *StaticHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	if filepath.Ext(r.URL.Path) != ".png" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	h.media.ServeHTTP(w, r)
}
