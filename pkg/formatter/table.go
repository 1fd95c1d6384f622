// File: pkg/formatter/table.go
package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows as an ASCII grid. Widths are measured in terminal cells, so blob
// names with wide or combining characters stay aligned.
type Table struct {
	Headers []string
	Rows    [][]string

	rightAligned map[int]bool
}

func NewTable(headers []string) *Table {
	return &Table{
		Headers:      headers,
		Rows:         [][]string{},
		rightAligned: make(map[int]bool),
	}
}

// Rows with fewer cells than headers are padded; extra cells are dropped
func (t *Table) AddRow(row []string) {
	t.Rows = append(t.Rows, row)
}

// Right-aligns a column, e.g. sizes
func (t *Table) AlignRight(col int) *Table {
	t.rightAligned[col] = true
	return t
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	return widths
}

func (t *Table) String() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.columnWidths()
	border := borderLine(widths)

	var sb strings.Builder
	sb.WriteString(border)
	sb.WriteString("\n")
	t.writeRow(&sb, t.Headers, widths)
	sb.WriteString(border)
	sb.WriteString("\n")
	for _, row := range t.Rows {
		t.writeRow(&sb, row, widths)
	}
	sb.WriteString(border)

	return sb.String()
}

func (t *Table) writeRow(sb *strings.Builder, row []string, widths []int) {
	sb.WriteString("|")
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", width-lipgloss.Width(cell))

		sb.WriteString(" ")
		if t.rightAligned[i] {
			sb.WriteString(pad + cell)
		} else {
			sb.WriteString(cell + pad)
		}
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func borderLine(widths []int) string {
	var sb strings.Builder
	sb.WriteString("+")
	for _, width := range widths {
		sb.WriteString(strings.Repeat("-", width+2))
		sb.WriteString("+")
	}
	return sb.String()
}

// Formats a section header with a title
func FormatHeaderSection(title string) string {
	borderLine := strings.Repeat("=", lipgloss.Width(title)+4)
	return borderLine + "\n  " + title + "\n" + borderLine
}

// Formats a simple section title
func FormatSectionTitle(title string) string {
	return "-- " + title + " --"
}
