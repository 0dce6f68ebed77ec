// Package render turns the wide display table into a Markdown artifact.
// It is purely presentational: it decorates structure and never alters a
// numeric value.
package render

import (
	"fmt"
	"strings"

	apperrors "cohorttab/internal/errors"
	"cohorttab/internal/summary"
)

// GroupSpan is one top-level header cell covering Span adjacent data columns.
type GroupSpan struct {
	Label string
	Span  int
}

// Spec carries the presentation decisions for one rendered table: the stub
// label for the variable column, per-variable row labels, per-column label
// overrides, an optional grouped header, and an optional footnote.
type Spec struct {
	Stub         string
	RowLabels    map[string]string
	ColumnLabels []string
	GroupHeader  []GroupSpan
	Footnote     string
}

// Render emits the display table as a Markdown pipe table. The column label
// count must equal the data column count, and a grouped header's spans must
// cover exactly the data columns; anything else is a column mismatch.
func Render(table *summary.DisplayTable, spec Spec) (string, error) {
	columns := table.ColumnKeys()

	labels := spec.ColumnLabels
	if labels == nil {
		labels = columns
	}
	if len(labels) != len(columns) {
		return "", apperrors.NewColumnMismatchError(
			fmt.Sprintf("%d column labels supplied for %d data columns", len(labels), len(columns)))
	}

	if len(spec.GroupHeader) > 0 {
		spanned := 0
		for _, group := range spec.GroupHeader {
			spanned += group.Span
		}
		if spanned != len(columns) {
			return "", apperrors.NewColumnMismatchError(
				fmt.Sprintf("grouped header spans %d columns, table has %d", spanned, len(columns)))
		}
	}

	stub := spec.Stub
	if stub == "" {
		stub = "Variable"
	}

	var b strings.Builder

	// Grouped header row: each group label sits in the first column of its
	// span, the remaining spanned cells stay empty.
	if len(spec.GroupHeader) > 0 {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, "")
		for _, group := range spec.GroupHeader {
			cells = append(cells, group.Label)
			for i := 1; i < group.Span; i++ {
				cells = append(cells, "")
			}
		}
		writeRow(&b, cells)
	}

	writeRow(&b, append([]string{stub}, labels...))

	separators := make([]string, len(columns)+1)
	for i := range separators {
		separators[i] = "---"
	}
	writeRow(&b, separators)

	for _, variable := range table.Variables {
		label := variable
		if l, ok := spec.RowLabels[variable]; ok && l != "" {
			label = l
		}
		writeRow(&b, append([]string{label}, table.Row(variable)...))
	}

	if spec.Footnote != "" {
		b.WriteString("\n*")
		b.WriteString(spec.Footnote)
		b.WriteString("*\n")
	}

	return b.String(), nil
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(escapeCell(cell))
	}
	b.WriteString(" |\n")
}

// escapeCell keeps cell text from breaking the pipe table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "/")
}
