package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/models"
	"github.com/workflow-crm/report-automation/pkg/database"
)

func testRepo(t *testing.T) *RunRepository {
	t.Helper()
	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "runs.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return NewRunRepository(db.DB, logger)
}

func newRun(province string, created time.Time) *models.Run {
	return &models.Run{
		ID:             uuid.NewString(),
		Province:       province,
		SheetName:      province + " 31.05 workflow crm automated",
		SheetURL:       "https://docs.google.com/spreadsheets/d/abc",
		RowsParsed:     10,
		RowsUploaded:   8,
		RowsSkipped:    2,
		ProcessingDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:      created,
	}
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	run := newRun("Ontario", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, run))

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Province, got.Province)
	assert.Equal(t, run.SheetName, got.SheetName)
	assert.Equal(t, run.RowsUploaded, got.RowsUploaded)
	assert.True(t, run.ProcessingDate.Equal(got.ProcessingDate))
}

func TestRunRepository_GetMissing(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetByID(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRunRepository_ListRecent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newRun("Alberta", base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].CreatedAt.After(runs[1].CreatedAt))
	assert.True(t, runs[1].CreatedAt.After(runs[2].CreatedAt))
}
