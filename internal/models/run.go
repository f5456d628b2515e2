package models

import "time"

// Run is one completed (or failed) report generation, kept for the
// history view on the form page.
type Run struct {
	ID             string    `json:"id"`
	Province       string    `json:"province"`
	SheetName      string    `json:"sheet_name"`
	SheetURL       string    `json:"sheet_url,omitempty"`
	RowsParsed     int       `json:"rows_parsed"`
	RowsUploaded   int       `json:"rows_uploaded"`
	RowsSkipped    int       `json:"rows_skipped"`
	ProcessingDate time.Time `json:"processing_date"`
	CreatedAt      time.Time `json:"created_at"`
}
