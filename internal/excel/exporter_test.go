package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/pipeline"
	"github.com/workflow-crm/report-automation/internal/report"
)

func testTable() *report.Table {
	return &report.Table{
		Header: []string{"id", "amount", "date", "category", "status"},
		Rows: []report.Row{
			{Cells: []string{"INV-1", "50.00", "2024-05-01", "small", "pending"}, Status: pipeline.StatusPending},
			{Cells: []string{"INV-2", "75.00", "2024-05-01", "small", "paid"}, Status: pipeline.StatusPaid},
			{Cells: []string{"INV-3", "975.00", "2024-01-01", "large", "overdue"}, Status: pipeline.StatusOverdue},
		},
	}
}

func TestExporter_Upload(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, zap.NewNop())

	path, err := exporter.Upload(context.Background(), "Ontario 31.05 workflow crm automated", testTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Ontario 31.05 workflow crm automated.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)

	got, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "id", got)

	got, err = f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "50.00", got)

	got, err = f.GetCellValue(sheet, "E4")
	require.NoError(t, err)
	assert.Equal(t, "overdue", got)

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestExporter_UploadEmptyTable(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, zap.NewNop())

	table := &report.Table{Header: []string{"id", "amount", "date", "category", "status"}}
	path, err := exporter.Upload(context.Background(), "empty", table)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue(f.GetSheetName(0), "E1")
	require.NoError(t, err)
	assert.Equal(t, "status", got)
}

func TestExporter_CancelledContext(t *testing.T) {
	exporter := NewExporter(t.TempDir(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exporter.Upload(ctx, "never", testTable())
	require.Error(t, err)
}
