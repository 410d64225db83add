package http

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/clawface/internal/media"
)

var staticTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".json": "application/json",
	".css":  "text/css",
	".svg":  "image/svg+xml",
	".png":  "image/png",
}

// handleStatic serves files under staticDir; "/" maps to index.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	urlPath := path.Clean("/" + r.URL.Path)
	if urlPath == "/" {
		urlPath = "/index.html"
	}
	root, err := filepath.Abs(s.staticDir)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	full := filepath.Join(root, filepath.FromSlash(urlPath))
	if rel, err := filepath.Rel(root, full); err != nil || strings.HasPrefix(rel, "..") {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(full)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	ext := strings.ToLower(filepath.Ext(full))
	ct, ok := staticTypes[ext]
	if !ok {
		if ct, ok = media.AudioTypes[ext]; !ok {
			if ct = mime.TypeByExtension(ext); ct == "" {
				ct = "application/octet-stream"
			}
		}
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(data)
	}
}
