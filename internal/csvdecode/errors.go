package csvdecode

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when the sidecar ran but produced neither
// headers nor rows.
var ErrEmptyResult = errors.New("ica produced no CSV data")

// ParseError reports a structural CSV error.
type ParseError struct {
	// Row is the zero-based data row index; -1 for the header row.
	Row int
	// Line is the 1-based line in the source text.
	Line int
	// Message is the parser's message, verbatim.
	Message string

	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse CSV output from ica (row %d, line %d): %s", e.Row, e.Line, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.err
}
