package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/parser"
	"github.com/manav03panchal/tickwatch/internal/validate"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Yellow
	colorError     = lipgloss.Color("#EF4444") // Red
	colorSuccess   = lipgloss.Color("#10B981") // Green

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSubtitle = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleName = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleRunning = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleDuration = lipgloss.NewStyle().
			Bold(true)

	styleNote = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorMuted)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	if c.IsColorEnabled() {
		c.Println(styleTitle.Render(text))
	} else {
		c.Println(text)
	}
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	if c.IsColorEnabled() {
		c.Println(styleSuccess.Render("✓ " + text))
	} else {
		c.Println("✓ " + text)
	}
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	if c.IsColorEnabled() {
		c.Println(styleWarning.Render("⚠ " + text))
	} else {
		c.Println("⚠ " + text)
	}
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	if c.IsColorEnabled() {
		c.Println(styleError.Render("✗ " + text))
	} else {
		c.Println("✗ " + text)
	}
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	if c.IsColorEnabled() {
		c.Println(styleMuted.Render(text))
	} else {
		c.Println(text)
	}
}

// Name formats a timer name.
func (c *CLIFormatter) Name(name string) string {
	if c.IsColorEnabled() {
		return styleName.Render(name)
	}
	return name
}

// Duration formats a duration.
func (c *CLIFormatter) Duration(text string) string {
	if c.IsColorEnabled() {
		return styleDuration.Render(text)
	}
	return text
}

// Note formats a note.
func (c *CLIFormatter) Note(text string) string {
	if c.IsColorEnabled() {
		return styleNote.Render(text)
	}
	return text
}

// State returns the label shown in the state column.
func State(e model.TimerEntry) string {
	switch {
	case e.Active:
		return "running"
	case e.IsAlarm() && e.Dismissed:
		return "done"
	case e.IsCountdown() && e.Remaining < e.Duration && e.Remaining > 0:
		return "paused"
	default:
		return "stopped"
	}
}

func (c *CLIFormatter) state(e model.TimerEntry) string {
	label := State(e)
	if !c.IsColorEnabled() {
		return label
	}
	switch label {
	case "running":
		return styleRunning.Render(label)
	case "paused":
		return styleWarning.Render(label)
	default:
		return styleMuted.Render(label)
	}
}

// Schedule describes what an entry counts towards.
func Schedule(e model.TimerEntry, now time.Time) string {
	if e.IsAlarm() {
		return parser.FormatAlarmTime(e.TriggerAt, now)
	}
	return FormatSeconds(e.Duration)
}

// PrintTimerAdded prints confirmation for a new timer.
func (c *CLIFormatter) PrintTimerAdded(e model.TimerEntry, now time.Time) {
	c.Success(fmt.Sprintf("Added %s %s", e.Kind, c.Name(e.Name)))
	c.PrintTimer(e, now)
}

// PrintTimer prints the details of one timer.
func (c *CLIFormatter) PrintTimer(e model.TimerEntry, now time.Time) {
	c.Printf("  ID: %s\n", e.ID)
	if e.IsAlarm() {
		c.Printf("  At: %s (%s)\n", Schedule(e, now), parser.FormatTimeUntil(e.TriggerAt, now))
	} else {
		c.Printf("  Duration: %s\n", c.Duration(FormatSeconds(e.Duration)))
		c.Printf("  Remaining: %s\n", FormatRemaining(e.Remaining))
	}
	c.Printf("  State: %s\n", c.state(e))
	if e.ActionPath != "" {
		c.Printf("  Action: %s\n", c.Note(e.ActionPath))
	}
}

// PrintTimers prints the timer list as a table.
func (c *CLIFormatter) PrintTimers(entries []model.TimerEntry, now time.Time) {
	if len(entries) == 0 {
		c.Muted("No timers.")
		c.Muted("Use 'tickwatch add <name> --in 5m' to create one.")
		return
	}

	rows := make([]TableRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, TableRow{Columns: []string{
			shortID(e.ID),
			e.Name,
			string(e.Kind),
			Schedule(e, now),
			FormatRemaining(e.RemainingAt(now)),
			State(e),
			e.ActionPath,
		}})
	}
	c.PrintTable([]string{"ID", "NAME", "KIND", "SCHEDULE", "REMAINING", "STATE", "ACTION"}, rows)
}

// PrintHistory prints fired records, newest first.
func (c *CLIFormatter) PrintHistory(records []*model.FiredRecord) {
	if len(records) == 0 {
		c.Muted("Nothing has fired yet.")
		return
	}

	rows := make([]TableRow, 0, len(records))
	for _, r := range records {
		result := "ok"
		if r.Failed() {
			result = "action failed: " + r.DispatchError
		}
		rows = append(rows, TableRow{Columns: []string{
			FormatTime(r.FiredAt),
			r.Name,
			string(r.Kind),
			r.ActionPath,
			result,
		}})
	}
	c.PrintTable([]string{"FIRED", "NAME", "KIND", "ACTION", "RESULT"}, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ProgressBar creates a simple progress bar.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return bar
}

// Table helpers for CLI output.
type TableRow struct {
	Columns []string
}

// minColumnWidth is the narrowest a column is squeezed to fit the terminal.
const minColumnWidth = 6

// PrintTable prints a simple table, shrinking the widest columns until it
// fits the terminal.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if n := len([]rune(col)); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}
	fitWidths(widths, c.Width())

	// Print headers
	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(fmt.Sprintf("%-*s  ", widths[i], validate.TruncateString(h, widths[i])))
	}
	header := strings.TrimRight(headerLine.String(), " ")
	if c.IsColorEnabled() {
		header = styleBold.Render(header)
	}
	c.Println(header)

	// Print separator
	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	// Print rows
	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(fmt.Sprintf("%-*s  ", widths[i], validate.TruncateString(col, widths[i])))
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}

// fitWidths narrows the widest column one rune at a time until the row,
// with two-space gutters, fits in total.
func fitWidths(widths []int, total int) {
	sum := func() int {
		n := 0
		for _, w := range widths {
			n += w + 2
		}
		return n
	}
	for sum() > total {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			return
		}
		widths[widest]--
	}
}
