package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/models"
)

// RunRepository persists report runs to the history store.
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a completed run.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (
			id, province, sheet_name, sheet_url,
			rows_parsed, rows_uploaded, rows_skipped,
			processing_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Province,
		run.SheetName,
		run.SheetURL,
		run.RowsParsed,
		run.RowsUploaded,
		run.RowsSkipped,
		run.ProcessingDate,
		run.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create run record", zap.String("run_id", run.ID), zap.Error(err))
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// ListRecent returns the latest runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, province, sheet_name, sheet_url,
			rows_parsed, rows_uploaded, rows_skipped,
			processing_date, created_at
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list runs", zap.Error(err))
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		err := rows.Scan(
			&run.ID,
			&run.Province,
			&run.SheetName,
			&run.SheetURL,
			&run.RowsParsed,
			&run.RowsUploaded,
			&run.RowsSkipped,
			&run.ProcessingDate,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// GetByID returns a single run, or sql.ErrNoRows.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT id, province, sheet_name, sheet_url,
			rows_parsed, rows_uploaded, rows_skipped,
			processing_date, created_at
		FROM runs
		WHERE id = ?
	`

	var run models.Run
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Province,
		&run.SheetName,
		&run.SheetURL,
		&run.RowsParsed,
		&run.RowsUploaded,
		&run.RowsSkipped,
		&run.ProcessingDate,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	return &run, nil
}
