// Package excel renders report tables to formatted .xlsx files. It
// backs the offline CLI and deployments that run without Google
// credentials.
package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/workflow-crm/report-automation/internal/pipeline"
	"github.com/workflow-crm/report-automation/internal/report"
	"github.com/workflow-crm/report-automation/pkg/utils"
)

// Fill colours matching the Google Sheets formatting.
const (
	headerFill  = "C7DEFF"
	paidFill    = "FFFF00"
	overdueFill = "FF9900"
)

const minColumnWidth = 10

// Exporter writes report tables into an output directory.
type Exporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(outputDir string, logger *zap.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		logger:    logger,
	}
}

// Upload writes the table as <outputDir>/<sheetName>.xlsx and returns
// the file path.
func (e *Exporter) Upload(ctx context.Context, sheetName string, table *report.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(e.outputDir, utils.SanitizeFileName(sheetName)+".xlsx")
	if err := e.write(path, table); err != nil {
		return "", err
	}

	e.logger.Info("Report exported",
		zap.String("path", path),
		zap.Int("rows", len(table.Rows)))
	return path, nil
}

func (e *Exporter) write(path string, table *report.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for col, value := range table.Header {
		if err := setCell(f, sheet, col+1, 1, value); err != nil {
			return err
		}
	}
	for rowIdx, row := range table.Rows {
		for col, value := range row.Cells {
			if err := setCell(f, sheet, col+1, rowIdx+2, value); err != nil {
				return err
			}
		}
	}

	if err := e.applyStyles(f, sheet, table); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) applyStyles(f *excelize.File, sheet string, table *report.Table) error {
	columns := len(table.Header)
	if columns == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return fmt.Errorf("failed to name column %d: %w", columns, err)
	}

	centered, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if len(table.Rows) > 0 {
		if err := f.SetCellStyle(sheet, "A2", fmt.Sprintf("%s%d", lastCol, len(table.Rows)+1), centered); err != nil {
			return fmt.Errorf("failed to apply style: %w", err)
		}
	}

	for status, fill := range map[pipeline.Status]string{
		pipeline.StatusPaid:    paidFill,
		pipeline.StatusOverdue: overdueFill,
	} {
		block, ok := table.StatusBlocks()[status]
		if !ok {
			continue
		}
		style, err := f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{Horizontal: "center"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("failed to create style: %w", err)
		}
		start := fmt.Sprintf("A%d", block[0]+2)
		end := fmt.Sprintf("%s%d", lastCol, block[1]+1)
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return fmt.Errorf("failed to apply style: %w", err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", header); err != nil {
		return fmt.Errorf("failed to apply style: %w", err)
	}

	return e.sizeColumns(f, sheet, table)
}

// sizeColumns approximates auto-resize by widening each column to its
// longest cell.
func (e *Exporter) sizeColumns(f *excelize.File, sheet string, table *report.Table) error {
	for col := range table.Header {
		width := len(table.Header[col])
		for _, row := range table.Rows {
			if col < len(row.Cells) && len(row.Cells[col]) > width {
				width = len(row.Cells[col])
			}
		}
		if width < minColumnWidth {
			width = minColumnWidth
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to name column %d: %w", col+1, err)
		}
		if err := f.SetColWidth(sheet, name, name, float64(width)+2); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to locate cell (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

// Verify interface compliance
var _ report.Uploader = (*Exporter)(nil)
