package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"cohorttab/internal/config"
	"cohorttab/internal/infrastructure"
	"cohorttab/internal/report"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	reportSpec := flag.String("report-spec", "", "path to YAML report spec (variables, labels, header groups, footnote)")
	source := flag.String("source", "", "dataset file path or URL (overrides config)")
	out := flag.String("out", "", "report output path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Input.Source = *source
	}
	if *out != "" {
		cfg.Output.ReportPath = *out
	}
	if cfg.Input.Source == "" {
		slog.Error("No dataset source configured",
			"hint", "pass -source or set input.source in the config file")
		os.Exit(1)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// One run, one ID: every log record below carries it.
	ctx := infrastructure.ContextWithRunID(context.Background())

	spec, err := config.LoadReportSpec(*reportSpec)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load report spec", "error", err)
		os.Exit(1)
	}

	runner := report.NewRunner(cfg, spec, logger)
	result, err := runner.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Pipeline failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(result.Markdown)
}
