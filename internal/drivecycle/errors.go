package drivecycle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingFile is returned when the trace source cannot be opened.
	ErrMissingFile = errors.New("driving cycle file not found")

	// ErrSchema is returned when the trace does not have the required shape:
	// a missing column role, an unparsable value, or fewer than two samples.
	ErrSchema = errors.New("driving cycle schema error")
)

// SchemaError lists the column roles absent from a trace header.
// errors.Is(err, ErrSchema) holds for every SchemaError.
type SchemaError struct {
	Missing []string // roles, e.g. "speed"
	Columns ColumnMap
	Header  []string
}

func (e *SchemaError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, role := range e.Missing {
		names = append(names, fmt.Sprintf("%s (%q)", role, e.Columns.column(role)))
	}
	return fmt.Sprintf("%v: missing required column(s) %s; header has [%s]",
		ErrSchema, strings.Join(names, ", "), strings.Join(e.Header, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
