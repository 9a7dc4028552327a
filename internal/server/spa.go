package server

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// handleScoreboard serves the scoreboard web client from dir. Unknown paths
// that look like client routes get index.html; missing assets get a 404.
func handleScoreboard(dir string) http.HandlerFunc {
	root := os.DirFS(dir)
	fileServer := http.FileServerFS(root)

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "."
		}
		if info, err := fs.Stat(root, name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		if path.Ext(name) != "" || strings.HasPrefix(name, "api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, root, "index.html")
	}
}
