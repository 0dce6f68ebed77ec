package report

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohorttab/internal/config"
	apperrors "cohorttab/internal/errors"
)

const cohortCSV = `subject,fat,bone_mineral,lean,age,height,weight,sex,inclusion
S001,20.0,5.0,75.0,20,160.0,55.0,F,incl
S002,22.0,4.0,74.0,24,164.0,59.0,F,incl
S003,18.0,6.0,76.0,30,180.0,80.0,M,incl
S004,19.0,5.0,76.0,34,178.0,84.0,M,incl
S005,25.0,5.0,70.0,41,175.0,90.0,M,excl
`

func runConfig(t *testing.T, source string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Input: config.InputConfig{Source: source},
		Output: config.OutputConfig{
			ReportPath:   filepath.Join(dir, "summary.md"),
			LongCSVPath:  filepath.Join(dir, "aggregate.csv"),
			WorkbookPath: filepath.Join(dir, "summary.xlsx"),
		},
	}
}

func writeCohortCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cohort.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunner_Run(t *testing.T) {
	cfg := runConfig(t, writeCohortCSV(t, cohortCSV))
	spec := config.DefaultReportSpec()

	runner := NewRunner(cfg, spec, slog.Default())
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	// 3 group combinations present x 4 configured variables
	assert.Len(t, result.Rows, 12)

	// F/incl mean age 22.0, sample SD 2.828...
	assert.Equal(t, "22.0 (2.8)", result.Table.Cell("age", "F_incl"))

	assert.Contains(t, result.Markdown, "| Age (yr) |")
	assert.Contains(t, result.Markdown, "*Values are mean (SD).*")

	// All three artifacts written.
	for _, path := range []string{cfg.Output.ReportPath, cfg.Output.LongCSVPath, cfg.Output.WorkbookPath} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0))
	}

	data, err := os.ReadFile(cfg.Output.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, result.Markdown, string(data))
}

func TestRunner_Run_SingleMemberPartition(t *testing.T) {
	cfg := runConfig(t, writeCohortCSV(t, cohortCSV))
	spec := config.DefaultReportSpec()

	runner := NewRunner(cfg, spec, slog.Default())
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	// M/excl has one member: SD is undefined and stays visible as NaN.
	assert.Equal(t, "41.0 (NaN)", result.Table.Cell("age", "M_excl"))
}

func TestRunner_Run_UndefinedDerivedValue(t *testing.T) {
	zeroDenominator := `subject,fat,bone_mineral,lean,age,height,weight,sex,inclusion
S001,0.0,0.0,0.0,20,160.0,55.0,F,incl
`
	cfg := runConfig(t, writeCohortCSV(t, zeroDenominator))

	runner := NewRunner(cfg, config.DefaultReportSpec(), slog.Default())
	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUndefined))

	// No partial output on failure.
	_, statErr := os.Stat(cfg.Output.ReportPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunner_Run_LabelMismatch(t *testing.T) {
	cfg := runConfig(t, writeCohortCSV(t, cohortCSV))
	spec := config.DefaultReportSpec()
	spec.Labels = []string{"F excluded", "F included", "M excluded"} // 3 labels, 4 columns

	runner := NewRunner(cfg, spec, slog.Default())
	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeColumnMismatch))
}

func TestRunner_Run_MissingSource(t *testing.T) {
	cfg := runConfig(t, filepath.Join(t.TempDir(), "absent.csv"))

	runner := NewRunner(cfg, config.DefaultReportSpec(), slog.Default())
	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeResource))
}

func TestRunner_Run_GroupedHeader(t *testing.T) {
	cfg := runConfig(t, writeCohortCSV(t, cohortCSV))
	spec := config.DefaultReportSpec()
	spec.Labels = []string{"Included", "Excluded", "Included"}
	spec.GroupHeader = []config.GroupSpan{
		{Label: "Female", Span: 1},
		{Label: "Male", Span: 2},
	}

	runner := NewRunner(cfg, spec, slog.Default())
	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(result.Markdown, "\n")
	assert.Equal(t, "|  | Female | Male |  |", lines[0])
}
