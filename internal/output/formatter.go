// Package output renders timers, history and errors for the terminal and as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 80

// Format represents the output format type.
type Format string

const (
	FormatCLI   Format = "cli"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ColorMode represents the color output mode.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Formatter writes command output in the selected format.
type Formatter struct {
	Writer    io.Writer
	Format    Format
	ColorMode ColorMode
}

// NewFormatter returns a CLI formatter on stdout with automatic color.
func NewFormatter() *Formatter {
	return &Formatter{
		Writer:    os.Stdout,
		Format:    FormatCLI,
		ColorMode: ColorAuto,
	}
}

// IsColorEnabled reports whether ANSI styling should be emitted.
func (f *Formatter) IsColorEnabled() bool {
	switch f.ColorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	w, ok := f.Writer.(*os.File)
	return ok && (isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()))
}

// Width returns the terminal width of Writer, or DefaultWidth when it is
// not a terminal.
func (f *Formatter) Width() int {
	if w, ok := f.Writer.(*os.File); ok && isatty.IsTerminal(w.Fd()) {
		if width, _, err := term.GetSize(int(w.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

func (f *Formatter) Print(a ...any)                 { fmt.Fprint(f.Writer, a...) }
func (f *Formatter) Println(a ...any)               { fmt.Fprintln(f.Writer, a...) }
func (f *Formatter) Printf(format string, a ...any) { fmt.Fprintf(f.Writer, format, a...) }

// JSON writes v as an indented JSON document.
func (f *Formatter) JSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintJSON is JSON under the name the commands use.
func (f *Formatter) PrintJSON(v any) error {
	return f.JSON(v)
}

// JSONLine writes v on a single line, for event streams a consumer reads
// line by line.
func (f *Formatter) JSONLine(v any) error {
	return json.NewEncoder(f.Writer).Encode(v)
}

const day = 24 * time.Hour

// FormatDuration formats a timer length: "45s", "5m 30s", "1h 30m", "2d 3h".
// Only the two largest units are shown.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return twoUnits(int(d/time.Minute), "m", int(d%time.Minute/time.Second), "s")
	case d < day:
		return twoUnits(int(d/time.Hour), "h", int(d%time.Hour/time.Minute), "m")
	default:
		return twoUnits(int(d/day), "d", int(d%day/time.Hour), "h")
	}
}

func twoUnits(major int, majorUnit string, minor int, minorUnit string) string {
	if minor == 0 {
		return fmt.Sprintf("%d%s", major, majorUnit)
	}
	return fmt.Sprintf("%d%s %d%s", major, majorUnit, minor, minorUnit)
}

// FormatSeconds formats a whole number of seconds like FormatDuration.
func FormatSeconds(seconds int64) string {
	return FormatDuration(time.Duration(seconds) * time.Second)
}

// FormatRemaining is the clock face for time left: HH:MM:SS, with a day
// count in front past 24 hours. Negative values show as zero.
func FormatRemaining(seconds int64) string {
	seconds = max(seconds, 0)
	hms := fmt.Sprintf("%02d:%02d:%02d", seconds%86400/3600, seconds%3600/60, seconds%60)
	if days := seconds / 86400; days > 0 {
		return fmt.Sprintf("%dd %s", days, hms)
	}
	return hms
}

// FormatTime formats a time in the local zone with seconds.
func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatTimeOnly formats the local wall clock time.
func FormatTimeOnly(t time.Time) string {
	return t.Local().Format("15:04")
}
