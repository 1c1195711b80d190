// Package tui is the terminal dashboard: a live list of timers driven by
// store events.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	colorAccent  = lipgloss.Color("#7C3AED")
	colorKey     = lipgloss.Color("#10B981")
	colorMuted   = lipgloss.Color("#6B7280")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorRunning = lipgloss.Color("#10B981")
	colorCursor  = lipgloss.Color("#3B82F6")
	colorBorder  = lipgloss.Color("#4B5563")
)

// urgentSeconds is when a running timer's remaining time turns amber.
const urgentSeconds = 60

var (
	StyleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	StyleSubtitle = lipgloss.NewStyle().Foreground(colorMuted)
	StyleMuted    = StyleSubtitle
	StyleName     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCursor)
	StyleNote     = lipgloss.NewStyle().Italic(true).Foreground(colorMuted)
	StyleWarning  = lipgloss.NewStyle().Foreground(colorWarning)
	StyleError    = lipgloss.NewStyle().Foreground(colorError)

	StyleHelp     = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	StyleHelpKey  = lipgloss.NewStyle().Bold(true).Foreground(colorKey)
	StyleHelpDesc = lipgloss.NewStyle().Foreground(colorMuted)
)

// Remaining-time styles by urgency.
var (
	styleRemaining       = lipgloss.NewStyle().Bold(true).Foreground(colorCursor)
	styleRemainingUrgent = lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	styleRemainingIdle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// State label styles.
var (
	styleRunning = lipgloss.NewStyle().Bold(true).Foreground(colorRunning)
	stylePaused  = lipgloss.NewStyle().Foreground(colorWarning)
	styleIdle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// The list box border goes green while anything runs.
var (
	StyleListBox       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(1, 2).MarginBottom(1)
	StyleActiveListBox = StyleListBox.BorderForeground(colorRunning)
	StyleInputBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1)
)

// remainingStyle picks how a timer's time left is drawn.
func remainingStyle(active bool, remaining int64) lipgloss.Style {
	switch {
	case !active:
		return styleRemainingIdle
	case remaining <= urgentSeconds:
		return styleRemainingUrgent
	default:
		return styleRemaining
	}
}

// ProgressBar draws how much of a countdown has elapsed. The filled part
// turns amber once less than a tenth is left.
func ProgressBar(percentage float64, width int) string {
	percentage = min(max(percentage, 0), 100)
	filled := int(float64(width) * percentage / 100)

	fill := lipgloss.NewStyle().Foreground(colorRunning)
	if percentage >= 90 {
		fill = fill.Foreground(colorWarning)
	}
	rest := lipgloss.NewStyle().Foreground(colorMuted)

	return fill.Render(strings.Repeat("█", filled)) + rest.Render(strings.Repeat("░", width-filled))
}
