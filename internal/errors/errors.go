// Package errors defines the structured error types shared across
// FreightPulse: format-detection failures raised by the tabular
// normalizer and the API error envelope used by the HTTP transport.
package errors

import (
	"errors"
	"fmt"
)

// Detection stages at which tabular format recognition can fail. The
// stage is surfaced in diagnostics so an operator can tell whether the
// header row, the date column, or the value column broke on a layout
// change.
const (
	StageSheet         = "sheet"
	StageHeader        = "header"
	StageDateColumn    = "date_column"
	StageValueColumn   = "value_column"
	StageWeekColumns   = "week_columns"
	StageMeasureColumn = "measure_column"
)

// ParseError reports that a source payload's format was not
// recognized with enough confidence to proceed. Scoring on a
// misdetected column is worse than failing loudly, so these propagate
// and abort the signal's ingestion run.
type ParseError struct {
	Signal  string // which signal's source (river, rail, barge)
	Stage   string // which detection step failed
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("format not recognized: signal=%s stage=%s: %s", e.Signal, e.Stage, e.Message)
}

// NewParseError creates a ParseError for the given signal and stage.
func NewParseError(signal, stage, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Signal:  signal,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// AsParseError returns the wrapped ParseError, if any.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
