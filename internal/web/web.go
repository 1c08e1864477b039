// Package web holds the HTML templates and static assets of the browser UI.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// recordTable is the data passed to the "records" template.
type recordTable struct {
	ProjectID string
	Records   []models.PageRecord
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
	"table": func(projectID string, records []models.PageRecord) recordTable {
		return recordTable{ProjectID: projectID, Records: records}
	},
}

type Templates struct {
	tpl *template.Template
}

func NewTemplates() (*Templates, error) {
	tpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Templates{tpl: tpl}, nil
}

// Render executes the named template, e.g. "dashboard.html".
func (t *Templates) Render(w io.Writer, name string, data any) error {
	return t.tpl.ExecuteTemplate(w, name, data)
}

// Static serves the embedded static directory. Mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
