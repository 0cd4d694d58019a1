package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is a titled grid of cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// RowColors optionally colours each body row; nil entries stay plain.
	RowColors []lipgloss.TerminalColor
}

// AddRow appends a row with an optional colour.
func (t *Table) AddRow(color lipgloss.TerminalColor, cells ...string) {
	t.Rows = append(t.Rows, cells)
	t.RowColors = append(t.RowColors, color)
}

// RenderTable renders t with the console's colour profile.
func (c *Console) RenderTable(t Table) string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(c.Style().Foreground(ColorMuted)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := c.Style().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			if row >= 0 && row < len(t.RowColors) && t.RowColors[row] != nil {
				style = style.Foreground(t.RowColors[row])
			}
			return style
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(c.Style().Italic(true).Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.String())
	b.WriteString("\n")
	return b.String()
}

// PrintTable writes t to Out.
func (c *Console) PrintTable(t Table) {
	c.Printf("%s", c.RenderTable(t))
}
