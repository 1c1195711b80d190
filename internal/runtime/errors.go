package runtime

import (
	"fmt"
	"io"

	"github.com/manav03panchal/tickwatch/internal/errors"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitError    = 1 // unexpected or system failure
	ExitInvalid  = 2 // rejected input
	ExitNotFound = 3 // unknown timer or webhook
	ExitLocked   = 4 // another process owns the timers file
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errors.ErrLockHeld):
		return ExitLocked
	case errors.IsNotFound(err), errors.Is(err, errors.ErrWebhookNotFound):
		return ExitNotFound
	case errors.IsValidationError(err):
		return ExitInvalid
	default:
		return ExitError
	}
}

// ErrorStatus is the JSON status word for an error.
func ErrorStatus(err error) string {
	switch ExitCode(err) {
	case ExitLocked:
		return "locked"
	case ExitNotFound:
		return "not_found"
	case ExitInvalid:
		return "invalid"
	default:
		return "error"
	}
}

// Describe renders err for the terminal, with the error chain in debug mode.
func Describe(err error, debug bool) string {
	if debug {
		return errors.FormatDebugError(err)
	}
	return errors.FormatError(err)
}

// ReportError prints err as JSON on the formatter in JSON mode, otherwise
// as text on stderr.
func (c *Context) ReportError(err error, stderr io.Writer) {
	if err == nil {
		return
	}
	if c.IsJSON() {
		c.JSONFormatter().PrintError(ErrorStatus(err), err.Error(), errors.GetSuggestion(err))
		return
	}
	if c.Debug {
		fmt.Fprint(stderr, Describe(err, true))
		return
	}
	fmt.Fprintf(stderr, "Error: %s\n", Describe(err, false))
}
