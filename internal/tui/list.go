package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/output"
	"github.com/manav03panchal/tickwatch/internal/validate"
)

// ListComponent displays the timers with the cursor row highlighted.
type ListComponent struct {
	Timers []model.TimerEntry
	Cursor int
	Width  int
	Now    time.Time
}

// NewListComponent creates a new list component.
func NewListComponent(timers []model.TimerEntry, cursor, width int, now time.Time) *ListComponent {
	return &ListComponent{
		Timers: timers,
		Cursor: cursor,
		Width:  width,
		Now:    now,
	}
}

// View renders the list component.
func (lc *ListComponent) View() string {
	var content strings.Builder

	content.WriteString(StyleTitle.Render("Timers"))
	content.WriteString("\n")

	running := false
	if len(lc.Timers) == 0 {
		content.WriteString(StyleMuted.Render("No timers yet. Press 'a' to add one."))
	} else {
		for i, e := range lc.Timers {
			if i > 0 {
				content.WriteString("\n")
			}
			content.WriteString(lc.renderRow(e, i == lc.Cursor))
			running = running || e.Active
		}
	}

	box := StyleListBox
	if running {
		box = StyleActiveListBox
	}
	return box.Width(max(lc.Width-4, 20)).Render(content.String())
}

func (lc *ListComponent) renderRow(e model.TimerEntry, selected bool) string {
	var sb strings.Builder

	marker := "  "
	name := validate.TruncateString(e.Name, 32)
	if selected {
		marker = StyleSelected.Render("> ")
		name = StyleSelected.Render(name)
	} else {
		name = StyleName.Render(name)
	}
	sb.WriteString(marker)
	sb.WriteString(name)
	sb.WriteString("  ")
	left := e.RemainingAt(lc.Now)
	sb.WriteString(remainingStyle(e.Active, left).Render(output.FormatRemaining(left)))
	sb.WriteString("  ")
	sb.WriteString(stateLabel(e))

	sb.WriteString("\n    ")
	if e.IsAlarm() {
		sb.WriteString(StyleSubtitle.Render(fmt.Sprintf("alarm %s", output.Schedule(e, lc.Now))))
	} else {
		done := float64(e.Duration-e.Remaining) / float64(max(e.Duration, 1)) * 100
		sb.WriteString(ProgressBar(done, max(min(lc.Width-24, 40), 10)))
		sb.WriteString(StyleSubtitle.Render(" " + output.FormatSeconds(e.Duration)))
	}
	if e.ActionPath != "" {
		sb.WriteString(StyleNote.Render("  " + validate.TruncateString(e.ActionPath, 40)))
	}
	return sb.String()
}

func stateLabel(e model.TimerEntry) string {
	label := output.State(e)
	switch label {
	case "running":
		return styleRunning.Render("● " + label)
	case "paused":
		return stylePaused.Render(label)
	default:
		return styleIdle.Render(label)
	}
}

// InputComponent is the "name, schedule" prompt used to add a timer.
type InputComponent struct {
	Value string
	Width int
}

// View renders the prompt.
func (ic *InputComponent) View() string {
	var content strings.Builder
	content.WriteString(StyleTitle.UnsetMarginBottom().Render("Add timer"))
	content.WriteString("\n")
	content.WriteString(ic.Value)
	content.WriteString(StyleSelected.Render("█"))
	content.WriteString("\n")
	content.WriteString(StyleSubtitle.Render("name, 5m | name, 00:25:00 | name, tomorrow 7am"))
	return StyleInputBox.Width(max(ic.Width-4, 20)).Render(content.String())
}

type helpKey struct {
	key  string
	desc string
}

var (
	listKeys = []helpKey{
		{"↑/↓", "select"},
		{"space", "start/stop"},
		{"d", "delete"},
		{"s", "start all"},
		{"x", "stop all"},
		{"a", "add"},
		{"q", "quit"},
	}
	inputKeys = []helpKey{
		{"enter", "add"},
		{"esc", "cancel"},
	}
)

// HelpBar renders the help bar at the bottom.
func HelpBar(adding bool) string {
	keys := listKeys
	if adding {
		keys = inputKeys
	}

	var parts []string
	for _, k := range keys {
		part := StyleHelpKey.Render(k.key) + " " + StyleHelpDesc.Render(k.desc)
		parts = append(parts, part)
	}

	return StyleHelp.Render(strings.Join(parts, "  •  "))
}
