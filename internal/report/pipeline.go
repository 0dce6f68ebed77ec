// Package report wires the pipeline stages together: load, derive,
// aggregate, format/pivot, render, and write artifacts. One run is one
// stateless batch transformation; any stage failure aborts the run and no
// partial table is emitted.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cohorttab/internal/config"
	"cohorttab/internal/dataset"
	"cohorttab/internal/export"
	"cohorttab/internal/render"
	"cohorttab/internal/summary"
)

// Result holds the outputs of one pipeline run.
type Result struct {
	Markdown string
	Rows     []summary.AggregateRow
	Table    *summary.DisplayTable
}

// Runner executes the summary-table pipeline for one configuration.
type Runner struct {
	cfg    *config.Config
	spec   *config.ReportSpec
	logger *slog.Logger
	loader *dataset.Loader
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, spec *config.ReportSpec, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		spec:   spec,
		logger: logger,
		loader: dataset.NewLoader(logger, dataset.LoaderConfig{Sheet: cfg.Input.Sheet}),
	}
}

// Run executes the pipeline: every stage either succeeds fully or the run
// aborts with a descriptive error. Artifacts are written only after all
// computation has succeeded.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	table, err := r.loader.Load(ctx, r.cfg.Input.Source)
	if err != nil {
		return nil, fmt.Errorf("load stage: %w", err)
	}

	derived, err := dataset.DeriveAll(ctx, r.logger, table)
	if err != nil {
		return nil, fmt.Errorf("derive stage: %w", err)
	}

	rows, err := summary.Aggregate(ctx, r.logger, derived, r.spec.VariableNames())
	if err != nil {
		return nil, fmt.Errorf("aggregate stage: %w", err)
	}

	display, err := summary.Pivot(rows, r.spec.VariableNames())
	if err != nil {
		return nil, fmt.Errorf("format stage: %w", err)
	}

	markdown, err := render.Render(display, r.renderSpec())
	if err != nil {
		return nil, fmt.Errorf("render stage: %w", err)
	}

	if err := r.writeArtifacts(ctx, markdown, rows, display); err != nil {
		return nil, err
	}

	return &Result{Markdown: markdown, Rows: rows, Table: display}, nil
}

// renderSpec maps the configured report spec onto the renderer's input.
func (r *Runner) renderSpec() render.Spec {
	rowLabels := make(map[string]string, len(r.spec.Variables))
	for _, v := range r.spec.Variables {
		if v.Label != "" {
			rowLabels[v.Name] = v.Label
		}
	}

	var groups []render.GroupSpan
	for _, g := range r.spec.GroupHeader {
		groups = append(groups, render.GroupSpan{Label: g.Label, Span: g.Span})
	}

	var labels []string
	if len(r.spec.Labels) > 0 {
		labels = r.spec.Labels
	}

	return render.Spec{
		Stub:         r.spec.Stub,
		RowLabels:    rowLabels,
		ColumnLabels: labels,
		GroupHeader:  groups,
		Footnote:     r.spec.Footnote,
	}
}

func (r *Runner) writeArtifacts(ctx context.Context, markdown string, rows []summary.AggregateRow, display *summary.DisplayTable) error {
	if path := r.cfg.Output.LongCSVPath; path != "" {
		writer := export.NewCSVWriter(r.logger, r.cfg.Output.BOM())
		if err := writer.WriteLong(path, rows); err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
	}

	if path := r.cfg.Output.WorkbookPath; path != "" {
		writer := export.NewWorkbookWriter(r.logger)
		if err := writer.Write(path, display, r.renderSpec()); err != nil {
			return fmt.Errorf("workbook export: %w", err)
		}
	}

	if path := r.cfg.Output.ReportPath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.logger.InfoContext(ctx, "wrote summary report", slog.String("path", path))
	}

	return nil
}
