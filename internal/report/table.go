package report

import (
	"sort"
	"time"

	"github.com/workflow-crm/report-automation/internal/pipeline"
)

// Table is the sheet-ready view of a pipeline run: a header row plus
// data rows grouped so that same-status rows form contiguous blocks
// (pending, then paid, then overdue), the order the CRM team reads the
// report in.
type Table struct {
	Header []string
	Rows   []Row
}

// Row is one invoice line with its status kept alongside the rendered
// cells so uploaders can colour it.
type Row struct {
	Cells  []string
	Status pipeline.Status
}

// Fixed leading columns; pass-through columns follow alphabetically.
var baseHeader = []string{"id", "amount", "date", "category", "status"}

// statusOrder drives the presentation grouping.
var statusOrder = map[pipeline.Status]int{
	pipeline.StatusPending: 0,
	pipeline.StatusPaid:    1,
	pipeline.StatusOverdue: 2,
}

const dateLayout = "2006-01-02"

// BuildTable renders records into an upload table. Rows with a
// non-positive amount are dropped here, not in the pipeline: the filter
// is a presentation rule of this report, not a validation rule.
func BuildTable(records []pipeline.Record) *Table {
	kept := make([]pipeline.Record, 0, len(records))
	for _, rec := range records {
		if rec.Amount.IsPositive() {
			kept = append(kept, rec)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return statusOrder[kept[i].Status] < statusOrder[kept[j].Status]
	})

	extras := extraColumns(kept)
	header := append(append([]string{}, baseHeader...), extras...)

	rows := make([]Row, 0, len(kept))
	for _, rec := range kept {
		cells := []string{
			rec.ID,
			rec.Amount.StringFixed(2),
			rec.Date.Format(dateLayout),
			rec.Category,
			string(rec.Status),
		}
		for _, col := range extras {
			cells = append(cells, rec.Extra[col])
		}
		rows = append(rows, Row{Cells: cells, Status: rec.Status})
	}

	return &Table{Header: header, Rows: rows}
}

// extraColumns returns the union of pass-through column names, sorted
// for a stable header.
func extraColumns(records []pipeline.Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for name := range rec.Extra {
			seen[name] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for name := range seen {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

// SheetName names the generated sheet after the province and the day
// before the processing date, matching the CRM team's convention.
func SheetName(province string, processingDate time.Time) string {
	return province + " " + processingDate.AddDate(0, 0, -1).Format("02.01") + " workflow crm automated"
}

// StatusBlocks returns, per status, the half-open row index ranges of
// the contiguous blocks in the table. Indexes are zero-based data-row
// positions, excluding the header.
func (t *Table) StatusBlocks() map[pipeline.Status][2]int {
	blocks := make(map[pipeline.Status][2]int)
	for i, row := range t.Rows {
		block, ok := blocks[row.Status]
		if !ok {
			blocks[row.Status] = [2]int{i, i + 1}
			continue
		}
		block[1] = i + 1
		blocks[row.Status] = block
	}
	return blocks
}
