package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/tickwatch/internal/errors"
)

// TimeParseError represents a parsing error with helpful examples.
type TimeParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
	Err        error // sentinel for errors.Is
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

func (e *TimeParseError) Unwrap() error {
	return e.Err
}

// FormatWithExamples returns the error message with example suggestions.
func (e *TimeParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

// DurationExamples provides example countdown formats.
var DurationExamples = []string{
	"90s",
	"25m",
	"1h30m",
	"00:25:00",
	"45 minutes",
	"1 hour 30 minutes",
}

// AlarmExamples provides example alarm time formats.
var AlarmExamples = []string{
	"7am",
	"18:30",
	"tomorrow 7am",
	"in 20 minutes",
	"+1h",
	"2026-01-02 09:00",
}

// NewDurationError creates a duration parse error with standard examples.
func NewDurationError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "duration",
		Message:    "could not parse duration",
		Examples:   DurationExamples,
		Suggestion: "Durations can be hours (h), minutes (m) and seconds (s), or HH:MM:SS.",
		Err:        errors.ErrInvalidDuration,
	}
}

// NewAlarmTimeError creates an alarm time parse error with standard examples.
func NewAlarmTimeError(input string) *TimeParseError {
	return &TimeParseError{
		Input:      input,
		Field:      "alarm time",
		Message:    "could not parse time",
		Examples:   AlarmExamples,
		Suggestion: "Try natural language like '7am', 'tomorrow 9:30' or 'in 20 minutes'.",
		Err:        errors.ErrInvalidTimestamp,
	}
}

// ToValidationError converts the parse error for consistent CLI handling.
func (e *TimeParseError) ToValidationError() *errors.ValidationError {
	suggestion := e.Suggestion
	if suggestion == "" && len(e.Examples) > 0 {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}
	return errors.NewValidationError(e.Err, e.Field, e.Input, e.Message).WithSuggestion(suggestion)
}
