package summary

import (
	"fmt"

	apperrors "cohorttab/internal/errors"
)

// FormatValue renders a statistic with exactly one decimal digit. Fixed
// precision keeps the trailing zero: 5.0 formats as "5.0", never "5".
// NaN formats as the literal "NaN", the non-finite convention for the whole
// table.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// FormatCell concatenates a formatted mean and standard deviation as
// "mean (sd)".
func FormatCell(mean, sd float64) string {
	return fmt.Sprintf("%s (%s)", FormatValue(mean), FormatValue(sd))
}

// DisplayTable is the wide, presentation-oriented layout: one row per
// variable, one column per (sex, inclusion) combination.
type DisplayTable struct {
	Variables []string   // row order as supplied by the caller
	Columns   []GroupKey // deterministic column order
	cells     map[string]map[string]string
}

// ColumnKeys returns the combined column key names in column order.
func (t *DisplayTable) ColumnKeys() []string {
	keys := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		keys[i] = col.ColumnKey()
	}
	return keys
}

// Cell returns the formatted "mean (sd)" string for a variable and column
// key, or "" when the combination was absent from the source.
func (t *DisplayTable) Cell(variable, columnKey string) string {
	if row, ok := t.cells[variable]; ok {
		return row[columnKey]
	}
	return ""
}

// Row returns the formatted cells for one variable in column order.
func (t *DisplayTable) Row(variable string) []string {
	cells := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cells[i] = t.Cell(variable, col.ColumnKey())
	}
	return cells
}

// Pivot reshapes long-form aggregate rows into the wide display table.
// Row order is the caller-supplied variable order, a domain decision, never
// a sort. Column order is the deterministic group-key order.
func Pivot(rows []AggregateRow, variableOrder []string) (*DisplayTable, error) {
	if len(variableOrder) == 0 {
		return nil, apperrors.NewConfigError("variable order must not be empty", nil)
	}

	aggregated := make(map[string]bool)
	seen := make(map[GroupKey]bool)
	var columns []GroupKey
	cells := make(map[string]map[string]string)

	for _, row := range rows {
		key := row.Key()
		if !seen[key] {
			seen[key] = true
			columns = append(columns, key)
		}
		aggregated[row.Variable] = true

		if cells[row.Variable] == nil {
			cells[row.Variable] = make(map[string]string)
		}
		cells[row.Variable][key.ColumnKey()] = FormatCell(row.Mean, row.SD)
	}

	for _, variable := range variableOrder {
		if !aggregated[variable] {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("variable %q in presentation order was not aggregated", variable), nil)
		}
	}

	return &DisplayTable{
		Variables: variableOrder,
		Columns:   columns,
		cells:     cells,
	}, nil
}
