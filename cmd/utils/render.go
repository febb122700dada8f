package utils

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// TemplatesDir resolves the HTML template directory.
func TemplatesDir() string {
	if dir := os.Getenv("TEMPLATES_DIR"); dir != "" {
		return dir
	}
	return "web/templates"
}

var templateFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
}

// Renderer renders a page template inside the base layout.
type Renderer struct {
	dir string
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render executes the page into a buffer first so a template failure
// becomes a clean 500 instead of a half-written response.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}

	files := []string{
		filepath.Join(rd.dir, "base.layout.html"),
		filepath.Join(rd.dir, page),
	}

	ts, err := template.New("").Funcs(templateFuncs).ParseFiles(files...)
	if err != nil {
		log.Printf("template parse error: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		log.Printf("template execute error: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
