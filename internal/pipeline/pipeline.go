package pipeline

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Run executes the full pipeline: parse, validate, categorize, dedupe.
// Row-level failures accumulate into the returned Report and never
// abort the run; only malformed input or a bad Config returns an error.
func Run(csvText string, cfg Config) ([]Record, Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	rows, err := Parse(csvText)
	if err != nil {
		return nil, nil, err
	}

	records := make([]Record, 0, len(rows))
	report := Report{}
	for _, row := range rows {
		rec, rowErr := validateRow(row, cfg)
		if rowErr != nil {
			report = append(report, Skipped{
				Row:   row.Line,
				Kind:  rowErr.Kind,
				Field: rowErr.Field,
				Value: rowErr.Value,
			})
			continue
		}
		records = append(records, categorize(rec, cfg))
	}

	return dedupe(records), report, nil
}

// Parse splits CSV text into raw rows keyed by the header. It returns a
// *MalformedError when the header is absent, no data rows follow it, or
// the CSV itself cannot be read.
func Parse(csvText string) ([]RawRow, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1 // short rows surface as missing fields during validation

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedError{Reason: "missing header row"}
		}
		return nil, &MalformedError{Reason: "unreadable header row", Err: err}
	}

	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff") // BOM from Excel exports
		}
		columns[i] = name
	}

	var rows []RawRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedError{Reason: "unreadable data row", Err: err}
		}
		line++

		fields := make(map[string]string, len(columns))
		for i, value := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			fields[columns[i]] = value
		}
		rows = append(rows, RawRow{Line: line, Fields: fields})
	}

	if len(rows) == 0 {
		return nil, &MalformedError{Reason: "no data rows"}
	}
	return rows, nil
}

// validateRow projects a raw row into a typed Record. A nil RowError
// means the record is valid.
func validateRow(row RawRow, cfg Config) (Record, *RowError) {
	for _, col := range requiredColumns {
		if strings.TrimSpace(row.Fields[col]) == "" {
			return Record{}, &RowError{Kind: KindMissingField, Field: col}
		}
	}

	rawAmount := row.Fields[ColumnAmount]
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return Record{}, &RowError{Kind: KindInvalidAmount, Field: ColumnAmount, Value: rawAmount}
	}

	rawDate := strings.TrimSpace(row.Fields[ColumnDate])
	date, ok := parseDate(rawDate, cfg.DateFormats)
	if !ok {
		return Record{}, &RowError{Kind: KindInvalidDate, Field: ColumnDate, Value: rawDate}
	}

	rec := Record{
		ID:     strings.TrimSpace(row.Fields[ColumnID]),
		Amount: amount,
		Date:   date,
	}
	if cfg.PaidColumn != "" {
		rec.Paid = isTruthy(row.Fields[cfg.PaidColumn])
	}

	for name, value := range row.Fields {
		if name == ColumnID || name == ColumnAmount || name == ColumnDate {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[name] = value
	}
	return rec, nil
}

// categorize assigns status and category from the configured rules.
func categorize(rec Record, cfg Config) Record {
	switch {
	case rec.Paid:
		rec.Status = StatusPaid
	case rec.Date.Before(cfg.ProcessingDate):
		rec.Status = StatusOverdue
	default:
		rec.Status = StatusPending
	}

	rec.Category = cfg.DefaultCategory
	for _, bucket := range cfg.sortedBuckets() {
		if rec.Amount.LessThan(bucket.Limit) {
			rec.Category = bucket.Label
			break
		}
	}
	return rec
}

// dedupe drops records whose id was already seen, keeping first-seen
// order. Linear in the input size.
func dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// ParseAmount parses a money string as exported by the CRM: an optional
// currency sign and thousands separators around a decimal number.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return decimal.NewFromString(cleaned)
}

func parseDate(raw string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "paid":
		return true
	}
	return false
}
