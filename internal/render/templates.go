package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageView is everything the full page shows.
type PageView struct {
	Title  string
	Query  string
	Status string
	// Error is shown as a banner when the last fetch failed.
	Error string
	// Count is how many jokes the refresh button asks for.
	Count int
	Table TableView
}

// Renderer executes the embedded page, table and filter templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("jokeboard").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Page writes the full HTML document.
func (r *Renderer) Page(w io.Writer, page PageView) error {
	return r.tmpl.ExecuteTemplate(w, "page", page)
}

// Table writes the table fragment the filter input swaps in.
func (r *Renderer) Table(w io.Writer, view TableView) error {
	return r.tmpl.ExecuteTemplate(w, "table", view)
}

// Row writes a single table row.
func (r *Renderer) Row(w io.Writer, row RowView) error {
	return r.tmpl.ExecuteTemplate(w, "row", row)
}
