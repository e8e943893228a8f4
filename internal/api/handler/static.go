package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Static раздает собранный клиент. Неизвестные не-API пути получают index.html,
// роутинг делает сам клиент.
type Static struct {
	dir   string
	files http.Handler
}

func NewStatic(dir string) *Static {
	return &Static{dir: dir, files: http.FileServer(http.Dir(dir))}
}

func (s *Static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	info, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err == nil && (!info.IsDir() || s.hasIndex(clean)) {
		s.files.ServeHTTP(w, r)
		return
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	index := filepath.Join(s.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

func (s *Static) hasIndex(dir string) bool {
	_, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(dir), "index.html"))
	return err == nil
}
