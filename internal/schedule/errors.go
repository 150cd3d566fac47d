package schedule

import (
	"errors"
	"fmt"
)

// Domain errors for the schedule package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, schedule.ErrParse) {
//	    // malformed schedule line
//	}
var (
	// ErrParse is returned when any line of a schedule source is malformed.
	// The concrete error is a *ParseError carrying the line details.
	ErrParse = errors.New("schedule: parse failure")

	// ErrSourceUnavailable is returned when the schedule source does not exist,
	// is not a regular file or cannot be read.
	ErrSourceUnavailable = errors.New("schedule: source unavailable")
)

// ParseError describes the first malformed line of a schedule source.
type ParseError struct {
	Source string // file path or "-" for stdin
	Line   int    // 1-based line number
	Text   string // the offending line
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("schedule: %s:%d: %s: %q", e.Source, e.Line, e.Reason, e.Text)
}

// Unwrap makes errors.Is(err, ErrParse) true for every ParseError.
func (e *ParseError) Unwrap() error {
	return ErrParse
}
