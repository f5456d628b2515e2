package pipeline

import "fmt"

// ErrorKind classifies why input was rejected.
type ErrorKind string

const (
	KindMalformedInput ErrorKind = "malformed_input"
	KindMissingField   ErrorKind = "missing_field"
	KindInvalidAmount  ErrorKind = "invalid_amount"
	KindInvalidDate    ErrorKind = "invalid_date"
)

// MalformedError aborts a run: the CSV has no header, no data rows, or
// cannot be read at all. Everything else is row-local.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %v", e.Reason, e.Err)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }

// RowError rejects a single row. It never escapes Run; rows failing
// validation land in the Report instead.
type RowError struct {
	Kind  ErrorKind
	Field string
	Value string
}

func (e *RowError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("missing required field %q", e.Field)
	case KindInvalidAmount:
		return fmt.Sprintf("invalid amount %q", e.Value)
	case KindInvalidDate:
		return fmt.Sprintf("invalid date %q", e.Value)
	default:
		return string(e.Kind)
	}
}
