package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// textValueWidth wraps the joke text column in terminal output.
const textValueWidth = 60

var (
	textHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	textCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	textBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderText writes jokes as a bordered terminal table.
func RenderText(w io.Writer, jokes []domain.Joke, columns []Column) error {
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Label
	}

	rows := make([][]string, 0, len(jokes))
	for i := range jokes {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = TextCell(col, &jokes[i])
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(textBorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return textHeaderStyle
			}
			if col < len(columns) && columns[col].Key == KeyValue {
				return textCellStyle.Width(textValueWidth)
			}
			return textCellStyle
		})

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	return nil
}
