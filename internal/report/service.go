// Package report orchestrates one report generation end to end:
// pipeline run, presentation table, spreadsheet upload, history record.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/models"
	"github.com/workflow-crm/report-automation/internal/pipeline"
)

// Uploader pushes a finished table to a spreadsheet destination and
// returns a link to it. The Google Sheets client and the local xlsx
// exporter both satisfy it.
type Uploader interface {
	Upload(ctx context.Context, sheetName string, table *Table) (string, error)
}

// RunStore records completed runs. Failures here are logged, never
// surfaced to the user.
type RunStore interface {
	Create(ctx context.Context, run *models.Run) error
}

// UploadError marks a failure in the spreadsheet collaborator, as
// opposed to bad input.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "spreadsheet upload failed: " + e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }

// Result is one completed generation.
type Result struct {
	Run     *models.Run
	Table   *Table
	Skipped pipeline.Report
}

// Service wires the pipeline to the uploader and the history store.
type Service struct {
	rules    func(processingDate time.Time) pipeline.Config
	uploader Uploader
	runs     RunStore
	logger   *zap.Logger
}

// NewService creates a new report service
func NewService(rules func(time.Time) pipeline.Config, uploader Uploader, runs RunStore, logger *zap.Logger) *Service {
	return &Service{
		rules:    rules,
		uploader: uploader,
		runs:     runs,
		logger:   logger,
	}
}

// Generate runs the pipeline over csvText and uploads the result.
// Malformed input surfaces as *pipeline.MalformedError, uploader
// failures as *UploadError; skipped rows are returned in the Result,
// never as an error.
func (s *Service) Generate(ctx context.Context, csvText, province string, processingDate time.Time) (*Result, error) {
	records, skipped, err := pipeline.Run(csvText, s.rules(processingDate))
	if err != nil {
		return nil, err
	}

	table := BuildTable(records)
	sheetName := SheetName(province, processingDate)

	s.logger.Info("Pipeline completed",
		zap.String("province", province),
		zap.Int("records", len(records)),
		zap.Int("uploaded_rows", len(table.Rows)),
		zap.Int("skipped_rows", len(skipped)))

	url, err := s.uploader.Upload(ctx, sheetName, table)
	if err != nil {
		return nil, &UploadError{Err: err}
	}

	run := &models.Run{
		ID:             uuid.NewString(),
		Province:       province,
		SheetName:      sheetName,
		SheetURL:       url,
		RowsParsed:     len(records) + len(skipped),
		RowsUploaded:   len(table.Rows),
		RowsSkipped:    len(skipped),
		ProcessingDate: processingDate,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		// History is best effort; the sheet already exists.
		s.logger.Error("Failed to record run", zap.String("run_id", run.ID), zap.Error(err))
	}

	return &Result{Run: run, Table: table, Skipped: skipped}, nil
}
