// Package export writes supplementary artifacts alongside the rendered
// report: the long-form aggregate rows as CSV and the wide table as an
// Excel workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperrors "cohorttab/internal/errors"
	"cohorttab/internal/summary"
)

// CSVWriter writes long-form aggregate rows to disk.
type CSVWriter struct {
	logger    *slog.Logger
	bomPrefix bool // UTF-8 BOM for Excel compatibility
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger, bomPrefix bool) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger, bomPrefix: bomPrefix}
}

var longHeader = []string{"sex", "inclusion", "variable", "mean", "sd", "n"}

// WriteLong writes one CSV line per aggregate row. Values keep full float
// precision; the one-decimal display rounding belongs to the formatter, not
// this export.
func (w *CSVWriter) WriteLong(path string, rows []summary.AggregateRow) error {
	w.logger.Info("writing long-form aggregate CSV",
		slog.String("path", path),
		slog.Int("row_count", len(rows)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewResourceError("failed to create directory for CSV output", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewResourceError("failed to create CSV file", err)
	}
	defer file.Close()

	if w.bomPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(longHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Sex,
			row.Inclusion,
			row.Variable,
			strconv.FormatFloat(row.Mean, 'f', -1, 64),
			strconv.FormatFloat(row.SD, 'f', -1, 64),
			strconv.Itoa(row.N),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
