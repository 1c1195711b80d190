// Package timer follows a single timer in the terminal.
package timer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/parser"
)

// CountdownDisplay handles the visual display of a watched timer.
type CountdownDisplay struct {
	Writer   io.Writer
	UseColor bool
}

// NewCountdownDisplay creates a new countdown display.
func NewCountdownDisplay() *CountdownDisplay {
	return &CountdownDisplay{
		Writer:   os.Stdout,
		UseColor: true,
	}
}

// Styles for countdown display.
var (
	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")) // Purple

	countdownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981")) // Green

	alarmStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B")) // Yellow

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")) // Gray

	statusStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6B7280")) // Gray
)

// FormatClock formats seconds as MM:SS, or HH:MM:SS from one hour up.
func FormatClock(seconds int64) string {
	seconds = max(seconds, 0)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

func (cd *CountdownDisplay) style(s lipgloss.Style, text string) string {
	if cd.UseColor {
		return s.Render(text)
	}
	return text
}

// RenderTimer renders the watched timer at now.
func (cd *CountdownDisplay) RenderTimer(e model.TimerEntry, now time.Time) string {
	var sb strings.Builder

	header := "COUNTDOWN"
	headerStyle := countdownStyle
	if e.IsAlarm() {
		header = "ALARM"
		headerStyle = alarmStyle
	}
	sb.WriteString(cd.style(headerStyle, header))
	sb.WriteString(" " + e.Name)
	sb.WriteString("\n\n")

	sb.WriteString(cd.style(timerStyle, FormatClock(e.RemainingAt(now))))
	sb.WriteString("\n\n")

	if e.IsAlarm() {
		sb.WriteString(cd.style(progressStyle, parser.FormatAlarmTime(e.TriggerAt, now)))
	} else {
		progress := 1.0 - float64(e.Remaining)/float64(max(e.Duration, 1))
		sb.WriteString(cd.style(progressStyle, cd.renderProgressBar(progress, 30)))
	}
	sb.WriteString("\n\n")

	var status string
	switch {
	case e.Active:
		status = "Press SPACE to stop, Q to quit"
	case e.IsAlarm() && e.Dismissed:
		status = "[DONE] Press SPACE to re-arm, Q to quit"
	default:
		status = "[STOPPED] Press SPACE to start, Q to quit"
	}
	sb.WriteString(cd.style(statusStyle, status))

	return sb.String()
}

// renderProgressBar creates a progress bar string.
func (cd *CountdownDisplay) renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("[%s] %d%%", bar, int(progress*100))
}

// ClearScreen clears the terminal screen.
func (cd *CountdownDisplay) ClearScreen() {
	fmt.Fprint(cd.Writer, "\033[H\033[2J")
}

// MoveCursorHome moves cursor to home position.
func (cd *CountdownDisplay) MoveCursorHome() {
	fmt.Fprint(cd.Writer, "\033[H")
}

// RenderExpired renders the message shown when the watched timer fires.
func (cd *CountdownDisplay) RenderExpired(e model.TimerEntry) string {
	msg := fmt.Sprintf("%s finished!", e.Name)
	if e.IsAlarm() {
		msg = fmt.Sprintf("%s went off!", e.Name)
	}
	out := cd.style(countdownStyle, msg)
	if e.ActionPath != "" {
		out += "\n\n" + cd.style(statusStyle, "Launched "+e.ActionPath)
	}
	return out
}
