// Package pipeline turns a raw invoice CSV export into a validated,
// categorized, deduplicated table ready for spreadsheet upload. The
// pipeline is pure: it performs no I/O and reads no clocks, so a run
// with the same input and configuration always produces the same
// output.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment state derived for an invoice row.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Required columns every export must carry. Other columns are passed
// through untouched.
const (
	ColumnID     = "id"
	ColumnAmount = "amount"
	ColumnDate   = "date"
)

var requiredColumns = []string{ColumnID, ColumnAmount, ColumnDate}

// RawRow is one untyped CSV data row keyed by header name.
type RawRow struct {
	Line   int // 1-based line in the source file, header is line 1
	Fields map[string]string
}

// Record is a validated and categorized invoice row.
type Record struct {
	ID       string
	Amount   decimal.Decimal
	Date     time.Time
	Category string
	Status   Status
	Paid     bool
	Extra    map[string]string
}

// Bucket maps an exclusive upper amount limit to a category label.
type Bucket struct {
	Limit decimal.Decimal
	Label string
}

// Config carries the business rules for one run. Thresholds and date
// layouts are data supplied by the caller, never hardcoded here.
type Config struct {
	// DateFormats are Go time layouts tried in order against the date
	// column. A value matching none of them rejects the row.
	DateFormats []string

	// PaidColumn optionally names a marker column whose truthy values
	// ("true", "yes", "1", "paid") flag a row as paid. Empty disables
	// the marker.
	PaidColumn string

	// Buckets assign the category label of the first bucket whose
	// limit exceeds the row amount. Sorted by Run before use.
	Buckets []Bucket

	// DefaultCategory labels amounts at or above every bucket limit.
	DefaultCategory string

	// ProcessingDate anchors the overdue computation. Injected so runs
	// are reproducible.
	ProcessingDate time.Time
}

// Validate reports the first configuration problem, or nil.
func (c Config) Validate() error {
	if len(c.DateFormats) == 0 {
		return fmt.Errorf("config: at least one date format is required")
	}
	if c.ProcessingDate.IsZero() {
		return fmt.Errorf("config: processing date is required")
	}
	if len(c.Buckets) > 0 && c.DefaultCategory == "" {
		return fmt.Errorf("config: default category is required when buckets are set")
	}
	for i, b := range c.Buckets {
		if b.Label == "" {
			return fmt.Errorf("config: bucket %d has no label", i)
		}
		if !b.Limit.IsPositive() {
			return fmt.Errorf("config: bucket %q limit must be positive", b.Label)
		}
	}
	return nil
}

// sortedBuckets returns the buckets ordered by ascending limit without
// mutating the caller's slice.
func (c Config) sortedBuckets() []Bucket {
	buckets := make([]Bucket, len(c.Buckets))
	copy(buckets, c.Buckets)
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Limit.LessThan(buckets[j].Limit)
	})
	return buckets
}

// Skipped records why one data row was excluded from the output.
type Skipped struct {
	Row   int       `json:"row"`
	Kind  ErrorKind `json:"kind"`
	Field string    `json:"field,omitempty"`
	Value string    `json:"value,omitempty"`
}

// Report lists skipped rows in source order.
type Report []Skipped
