package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of
// these so callers can classify failures with errors.Is.
var (
	// ErrFormat reports a structurally malformed block file.
	ErrFormat = errors.New("format error")
	// ErrRange reports an invalid block index bound.
	ErrRange = errors.New("range error")
	// ErrParse reports a non-numeric value where a number is required.
	ErrParse = errors.New("parse error")
	// ErrLengthMismatch reports a time-offset count that disagrees with the row count.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrMissingField reports an expected column that is absent.
	ErrMissingField = errors.New("missing field")
	// ErrTypeMismatch reports an operation applied to a column of the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrValue reports a value that cannot be rendered or converted, such as
	// an ISO week that does not exist or a date format that does not round-trip.
	ErrValue = errors.New("invalid value")
)

// ParseError identifies the cell that failed numeric parsing.
// Row is 0-based within the column; Line is the 1-based source line when known.
type ParseError struct {
	Source string
	Column string
	Row    int
	Line   int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error: column %q row %d: %q is not a number", e.Column, e.Row, e.Value)
	if e.Line > 0 {
		msg = fmt.Sprintf("parse error: %s line %d: %q is not a number", e.Source, e.Line, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// RangeError names the block bound that fell outside [Min, Max].
type RangeError struct {
	Bound string // "start_block" or "end_block"
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range error: %s=%d outside [%d, %d]", e.Bound, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrRange }

func formatErrorf(source, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrFormat, source, fmt.Sprintf(format, args...))
}

func missingField(name, context string) error {
	return fmt.Errorf("%w: column %q not found (%s)", ErrMissingField, name, context)
}
