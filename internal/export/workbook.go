package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "cohorttab/internal/errors"
	"cohorttab/internal/render"
	"cohorttab/internal/summary"
)

const summarySheet = "Summary"

// WorkbookWriter mirrors the rendered table layout into an .xlsx sheet,
// using merged cells for the grouped header.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a new workbook writer instance
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Write saves the display table to path. The same column-mismatch rules
// apply as for the Markdown renderer.
func (w *WorkbookWriter) Write(path string, table *summary.DisplayTable, spec render.Spec) error {
	columns := table.ColumnKeys()

	labels := spec.ColumnLabels
	if labels == nil {
		labels = columns
	}
	if len(labels) != len(columns) {
		return apperrors.NewColumnMismatchError(
			fmt.Sprintf("%d column labels supplied for %d data columns", len(labels), len(columns)))
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	rowIdx := 1

	if len(spec.GroupHeader) > 0 {
		spanned := 0
		for _, group := range spec.GroupHeader {
			spanned += group.Span
		}
		if spanned != len(columns) {
			return apperrors.NewColumnMismatchError(
				fmt.Sprintf("grouped header spans %d columns, table has %d", spanned, len(columns)))
		}

		col := 2 // data columns start after the stub column
		for _, group := range spec.GroupHeader {
			start, err := excelize.CoordinatesToCellName(col, rowIdx)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			end, err := excelize.CoordinatesToCellName(col+group.Span-1, rowIdx)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellStr(summarySheet, start, group.Label); err != nil {
				return fmt.Errorf("failed to set group header: %w", err)
			}
			if group.Span > 1 {
				if err := f.MergeCell(summarySheet, start, end); err != nil {
					return fmt.Errorf("failed to merge group header: %w", err)
				}
			}
			col += group.Span
		}
		rowIdx++
	}

	stub := spec.Stub
	if stub == "" {
		stub = "Variable"
	}

	header := append([]interface{}{stub}, toInterfaces(labels)...)
	if err := setRow(f, rowIdx, header); err != nil {
		return err
	}
	rowIdx++

	for _, variable := range table.Variables {
		label := variable
		if l, ok := spec.RowLabels[variable]; ok && l != "" {
			label = l
		}
		row := append([]interface{}{label}, toInterfaces(table.Row(variable))...)
		if err := setRow(f, rowIdx, row); err != nil {
			return err
		}
		rowIdx++
	}

	if spec.Footnote != "" {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellStr(summarySheet, cell, spec.Footnote); err != nil {
			return fmt.Errorf("failed to set footnote: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewResourceError("failed to create directory for workbook", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewResourceError("failed to save workbook", err)
	}

	w.logger.Info("wrote summary workbook",
		slog.String("path", path),
		slog.Int("variable_count", len(table.Variables)))

	return nil
}

func setRow(f *excelize.File, rowIdx int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowIdx, err)
	}
	return nil
}

func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
