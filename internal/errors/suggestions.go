package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	// User input errors
	ErrEmptyName:        "Give the timer a name, e.g. 'tickwatch add tea --in 5m'.",
	ErrNameTooLong:      "Timer names must be 128 characters or fewer.",
	ErrDuplicateName:    "Use 'tickwatch list' to see existing names, or edit the existing timer.",
	ErrInvalidDuration:  "Try formats like '90s', '5m', '1h30m', '00:25:00' or '45 minutes'.",
	ErrInvalidTimestamp: "Try formats like 'tomorrow 7am', 'in 20 minutes', '18:30' or '2026-01-02 09:00'.",
	ErrAlarmInPast:      "Pick a time in the future, or edit the alarm to a new time.",
	ErrInvalidAction:    "Provide a path to an existing file or program.",
	ErrAmbiguousRef:     "Use more characters of the id, or the full timer name.",
	ErrTimerNotFound:    "Use 'tickwatch list' to see available timers.",
	ErrWebhookNotFound:  "Use 'tickwatch webhook list' to see configured webhooks.",

	// System errors
	ErrDiskFull:         "Free up disk space. Timers keep running in memory and are saved on the next change.",
	ErrCorruptFile:      "The timers file could not be parsed; it will be rewritten on the next change.",
	ErrLockHeld:         "Another tickwatch process holds the timers. Stop 'tickwatch run' first, or use 'tickwatch dashboard' in its place to change timers while they tick.",
	ErrPermissionDenied: "Check file permissions in your data directory (~/.local/share/tickwatch/).",
}

// GetSuggestion returns a suggestion for an error, if available.
// It walks the error chain to find matching suggestions.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ve, ok := AsValidationError(err); ok && ve.Suggestion != "" {
		return ve.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}
	return ""
}

// FormatError formats an error with optional suggestion.
func FormatError(err error) string {
	msg := err.Error()
	if suggestion := GetSuggestion(err); suggestion != "" {
		msg += "\n" + suggestion
	}
	return msg
}

// FormatDebugError formats an error with its full chain.
func FormatDebugError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	chain := Chain(err)
	if len(chain) > 1 {
		sb.WriteString("\nError chain:\n")
		for i, msg := range chain {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, msg))
		}
	}

	if suggestion := GetSuggestion(err); suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", suggestion))
	}
	return sb.String()
}
