// Command report runs one report offline: it reads a CSV export from
// disk and writes the formatted .xlsx next to it, printing the
// skipped-row summary to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/config"
	"github.com/workflow-crm/report-automation/internal/excel"
	"github.com/workflow-crm/report-automation/internal/models"
	"github.com/workflow-crm/report-automation/internal/report"
	"github.com/workflow-crm/report-automation/pkg/utils"
)

// noopRunStore satisfies report.RunStore; offline runs keep no history.
type noopRunStore struct{}

func (noopRunStore) Create(context.Context, *models.Run) error { return nil }

func main() {
	_ = gotenv.Load() // optional .env, same vars as the server

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	csvPath := flag.String("csv", "", "path to the CSV export (required)")
	province := flag.String("province", "", "province the report is for (required)")
	date := flag.String("date", "", "processing date as 2006-01-02 (default today)")
	flag.Parse()

	if *csvPath == "" || *province == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if !cfg.HasProvince(*province) {
		fmt.Fprintf(os.Stderr, "Unknown province %q, configured: %v\n", *province, cfg.Server.Provinces)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	processingDate := time.Now().UTC().Truncate(24 * time.Hour)
	if *date != "" {
		processingDate, err = time.Parse("2006-01-02", *date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -date %q: %v\n", *date, err)
			os.Exit(1)
		}
	}

	csvData, err := os.ReadFile(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read CSV: %v\n", err)
		os.Exit(1)
	}

	exporter := excel.NewExporter(cfg.Export.OutputDir, logger)
	service := report.NewService(cfg.RulesFor, exporter, noopRunStore{}, logger)

	result, err := service.Generate(context.Background(), string(csvData), *province, processingDate)
	if err != nil {
		logger.Fatal("Report generation failed", zap.Error(err))
	}

	fmt.Printf("Report written: %s\n", result.Run.SheetURL)
	fmt.Printf("%d rows uploaded, %d skipped\n", result.Run.RowsUploaded, result.Run.RowsSkipped)
	for _, skipped := range result.Skipped {
		fmt.Printf("  row %d: %s", skipped.Row, skipped.Kind)
		if skipped.Field != "" {
			fmt.Printf(" (%s)", skipped.Field)
		}
		if skipped.Value != "" {
			fmt.Printf(" %q", skipped.Value)
		}
		fmt.Println()
	}
}
