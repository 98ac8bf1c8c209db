package render

import (
	"html/template"

	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// Lookup resolves a joke id against the full joke set.
type Lookup func(id string) (*domain.Joke, bool)

// Source is what a table reads: the filtered jokes to list and the lookup
// that resolves each listed id. *app.JokeStore satisfies it.
type Source interface {
	FilteredJokes() []domain.Joke
	GetJokeByID(id string) (*domain.Joke, bool)
}

// RowView is one rendered joke.
type RowView struct {
	ID    string
	Cells []template.HTML
}

// TableView is a rendered header and its rows.
type TableView struct {
	Columns []Column
	Rows    []RowView
}

// Row renders the joke with the given id. An id the lookup cannot resolve
// yields false, and the caller renders nothing for it.
func Row(lookup Lookup, id string, columns []Column) (RowView, bool) {
	joke, ok := lookup(id)
	if !ok || joke == nil {
		return RowView{}, false
	}

	cells := make([]template.HTML, len(columns))
	for i, col := range columns {
		cells[i] = Cell(col, joke)
	}

	return RowView{ID: joke.ID, Cells: cells}, true
}

// Table renders one row per filtered joke, in filtered order.
func Table(src Source, columns []Column) TableView {
	filtered := src.FilteredJokes()
	rows := make([]RowView, 0, len(filtered))

	for _, joke := range filtered {
		if row, ok := Row(src.GetJokeByID, joke.ID, columns); ok {
			rows = append(rows, row)
		}
	}

	return TableView{Columns: columns, Rows: rows}
}
