package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "cohorttab/internal/errors"
)

// Loader reads the raw dataset from a local file or an http(s) URL. One
// attempt only; a failed fetch or open surfaces immediately to the caller.
type Loader struct {
	logger *slog.Logger
	client *http.Client
	sheet  string
}

// LoaderConfig holds configuration options for the Loader.
type LoaderConfig struct {
	Sheet        string        // workbook sheet to read; empty means scan
	FetchTimeout time.Duration // timeout for URL sources
}

// NewLoader creates a dataset loader with the given configuration.
func NewLoader(logger *slog.Logger, cfg LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Loader{
		logger: logger,
		client: &http.Client{Timeout: timeout},
		sheet:  cfg.Sheet,
	}
}

// Load reads the source into an in-memory table of records. Delimited CSV is
// the primary format; .xlsx workbooks are read via excelize.
func (l *Loader) Load(ctx context.Context, source string) (*Table, error) {
	l.logger.InfoContext(ctx, "loading dataset", slog.String("source", source))

	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.EqualFold(filepath.Ext(sourcePath(source)), ".xlsx") {
		rows, err = l.workbookRows(ctx, data)
	} else {
		rows, err = csvRows(data)
	}
	if err != nil {
		return nil, err
	}

	table, err := parseRows(rows)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", source),
		slog.Int("record_count", len(table.Records)))

	return table, nil
}

// read fetches the raw bytes from a URL or the local filesystem.
func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, apperrors.NewResourceError("invalid source URL", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, apperrors.NewResourceError("failed to fetch dataset", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.NewResourceError(
				fmt.Sprintf("dataset fetch returned status %d", resp.StatusCode), nil).
				WithContext("source", source)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.NewResourceError("failed to read dataset body", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, apperrors.NewResourceError("failed to open dataset file", err)
	}
	return data, nil
}

// sourcePath strips any query string so extension detection works on URLs.
func sourcePath(source string) string {
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		return u.Path
	}
	return source
}

// csvRows parses delimited text into rows.
func csvRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewMalformedError("failed to parse CSV", err)
	}
	return rows, nil
}

// workbookRows extracts rows from an Excel workbook. When no sheet is
// configured it scans for the first sheet whose rows contain the expected
// header columns.
func (l *Loader) workbookRows(ctx context.Context, data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewMalformedError("failed to open workbook", err)
	}
	defer f.Close()

	if l.sheet != "" {
		rows, err := f.GetRows(l.sheet)
		if err != nil {
			return nil, apperrors.NewMalformedError(
				fmt.Sprintf("workbook sheet %q not readable", l.sheet), err)
		}
		return rows, nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if idx, _, missing := findHeader(rows); idx >= 0 && len(missing) == 0 {
			l.logger.InfoContext(ctx, "found dataset sheet", slog.String("sheet_name", name))
			return rows, nil
		}
	}

	return nil, apperrors.NewMalformedError("no workbook sheet contains the expected columns", nil)
}

// headerAliases maps common source spellings onto canonical column names.
var headerAliases = map[string]string{
	"id":                   ColSubject,
	"subject_id":           ColSubject,
	"bmd":                  ColBoneMineral,
	"bone_mineral_density": ColBoneMineral,
	"gender":               ColSex,
	"included":             ColInclusion,
	"inclusion_status":     ColInclusion,
}

func normalizeHeader(cell string) string {
	name := strings.ToLower(strings.TrimSpace(cell))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	if canonical, ok := headerAliases[name]; ok {
		return canonical
	}
	return name
}

// findHeader locates the header row and maps canonical column names to cell
// positions. Returns the header row index, the column map, and any required
// columns still missing from the best candidate row.
func findHeader(rows [][]string) (int, map[string]int, []string) {
	bestIdx := -1
	var bestMap map[string]int
	var bestMissing []string

	limit := len(rows)
	if limit > 10 {
		limit = 10
	}

	for i := 0; i < limit; i++ {
		columnMap := make(map[string]int)
		for j, cell := range rows[i] {
			name := normalizeHeader(cell)
			if name == "" {
				continue
			}
			if _, seen := columnMap[name]; !seen {
				columnMap[name] = j
			}
		}

		var missing []string
		for _, col := range RequiredColumns {
			if _, ok := columnMap[col]; !ok {
				missing = append(missing, col)
			}
		}

		if bestIdx == -1 || len(missing) < len(bestMissing) {
			bestIdx, bestMap, bestMissing = i, columnMap, missing
		}
		if len(missing) == 0 {
			break
		}
	}

	return bestIdx, bestMap, bestMissing
}

// parseRows converts raw rows into typed records, validating the schema.
func parseRows(rows [][]string) (*Table, error) {
	headerIdx, columnMap, missing := findHeader(rows)
	if headerIdx < 0 {
		return nil, apperrors.NewMalformedError("dataset is empty", nil)
	}
	if len(missing) > 0 {
		return nil, apperrors.NewMalformedError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	table := &Table{Records: make([]Record, 0, len(rows)-headerIdx-1)}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		record := Record{
			Subject:   cellAt(row, columnMap[ColSubject]),
			Sex:       cellAt(row, columnMap[ColSex]),
			Inclusion: cellAt(row, columnMap[ColInclusion]),
		}

		numeric := []struct {
			col  string
			dest *float64
		}{
			{ColFat, &record.Fat},
			{ColBoneMineral, &record.BoneMineral},
			{ColLean, &record.Lean},
			{ColAge, &record.Age},
			{ColHeight, &record.Height},
			{ColWeight, &record.Weight},
		}

		for _, field := range numeric {
			raw := cellAt(row, columnMap[field.col])
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, apperrors.NewMalformedError(
					fmt.Sprintf("row %d: column %s has non-numeric value %q", i+1, field.col, raw), err).
					WithContext("row", i+1).
					WithContext("column", field.col)
			}
			*field.dest = value
		}

		table.Records = append(table.Records, record)
	}

	return table, nil
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
