package sheets

import (
	"google.golang.org/api/sheets/v4"

	"github.com/workflow-crm/report-automation/internal/pipeline"
	"github.com/workflow-crm/report-automation/internal/report"
)

var (
	headerColor  = &sheets.Color{Red: 0.78, Green: 0.87, Blue: 1}
	paidColor    = &sheets.Color{Red: 1, Green: 1, Blue: 0}
	overdueColor = &sheets.Color{Red: 1, Green: 0.6, Blue: 0}
)

// statusColor returns the fill for a status block, or nil for statuses
// left uncoloured.
func statusColor(status pipeline.Status) *sheets.Color {
	switch status {
	case pipeline.StatusPaid:
		return paidColor
	case pipeline.StatusOverdue:
		return overdueColor
	default:
		return nil
	}
}

// formatRequests builds the batch formatting for one uploaded table:
// everything centered, status blocks filled, header bold on blue,
// columns auto-sized.
func formatRequests(table *report.Table, sheetID int64) []*sheets.Request {
	columns := int64(len(table.Header))
	rows := int64(len(table.Rows)) + 1 // header included

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      rows,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{HorizontalAlignment: "CENTER"},
				},
				Fields: "userEnteredFormat(horizontalAlignment)",
			},
		},
	}

	// Fills come before the header rule so the header keeps its own
	// background when a block starts at the first data row.
	for _, status := range []pipeline.Status{pipeline.StatusPaid, pipeline.StatusOverdue} {
		block, ok := table.StatusBlocks()[status]
		if !ok {
			continue
		}
		color := statusColor(status)
		if color == nil {
			continue
		}
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(block[0]) + 1, // +1 skips the header row
					EndRowIndex:      int64(block[1]) + 1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{BackgroundColor: color},
				},
				Fields: "userEnteredFormat(backgroundColor)",
			},
		})
	}

	requests = append(requests, &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    0,
				EndRowIndex:      1,
				StartColumnIndex: 0,
				EndColumnIndex:   columns,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					BackgroundColor: headerColor,
					TextFormat:      &sheets.TextFormat{Bold: true},
				},
			},
			Fields: "userEnteredFormat(backgroundColor,textFormat)",
		},
	})

	requests = append(requests, &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   columns,
			},
		},
	})

	return requests
}
