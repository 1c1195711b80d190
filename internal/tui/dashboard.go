package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/parser"
	"github.com/manav03panchal/tickwatch/internal/store"
)

// eventBuffer is the dashboard's subscription depth. Ticks that overflow it
// are dropped; the next list-changed or tick corrects the view.
const eventBuffer = 256

// tickMsg redraws the clock and expires status messages.
type tickMsg time.Time

// eventMsg carries one store event into the update loop.
type eventMsg events.Event

// eventsClosedMsg is sent when the bus is closed.
type eventsClosedMsg struct{}

// DashboardModel is the main bubbletea model for the dashboard.
type DashboardModel struct {
	store  *store.Store
	clock  clock.Clock
	events <-chan events.Event

	timers   []model.TimerEntry
	cursor   int
	selected string // id under the cursor

	adding bool
	input  string

	width      int
	height     int
	err        error
	message    string
	messageExp time.Time

	refreshInterval time.Duration
}

// DashboardConfig holds configuration for the dashboard.
type DashboardConfig struct {
	Store           *store.Store
	Clock           clock.Clock
	Events          <-chan events.Event // defaults to a subscription on the store's bus
	RefreshInterval time.Duration
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(config DashboardConfig) *DashboardModel {
	if config.RefreshInterval == 0 {
		config.RefreshInterval = time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.System
	}

	m := &DashboardModel{
		store:           config.Store,
		clock:           config.Clock,
		events:          config.Events,
		refreshInterval: config.RefreshInterval,
	}
	m.setTimers(config.Store.List())
	return m
}

// Init initializes the model.
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.waitForEvent())
}

// Update handles messages and updates the model.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.adding {
			return m.handleInputKey(msg)
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && time.Time(msg).After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, m.tickCmd()

	case eventMsg:
		m.applyEvent(events.Event(msg))
		return m, m.waitForEvent()

	case eventsClosedMsg:
		m.events = nil
		return m, nil
	}

	return m, nil
}

func (m *DashboardModel) applyEvent(ev events.Event) {
	switch ev.Type {
	case events.TypeListChanged:
		m.setTimers(ev.Timers)
	case events.TypeTick:
		for i := range m.timers {
			if m.timers[i].ID == ev.TimerID && m.timers[i].IsCountdown() {
				m.timers[i].Remaining = ev.Remaining
			}
		}
	case events.TypeExpired:
		m.setMessage(fmt.Sprintf("⏰ %s finished", ev.Name), 10*time.Second)
	case events.TypeError:
		m.err = ev.Err
	}
}

// setTimers replaces the list and keeps the cursor on the same timer when
// it still exists.
func (m *DashboardModel) setTimers(timers []model.TimerEntry) {
	m.timers = timers
	if m.selected != "" {
		for i, e := range timers {
			if e.ID == m.selected {
				m.cursor = i
				return
			}
		}
	}
	m.moveCursor(0)
}

func (m *DashboardModel) moveCursor(delta int) {
	if len(m.timers) == 0 {
		m.cursor = 0
		m.selected = ""
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.timers)-1)
	m.selected = m.timers[m.cursor].ID
}

func (m *DashboardModel) current() (model.TimerEntry, bool) {
	if len(m.timers) == 0 {
		return model.TimerEntry{}, false
	}
	return m.timers[m.cursor], true
}

// handleKeyPress handles keyboard input on the list.
func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)

	case "down", "j":
		m.moveCursor(1)

	case " ":
		if e, ok := m.current(); ok {
			m.report(m.store.SetActive(e.ID, !e.Active), "")
		}

	case "d":
		if e, ok := m.current(); ok {
			m.report(m.store.Remove(e.ID), fmt.Sprintf("Deleted %s", e.Name))
		}

	case "s":
		n := m.store.StartAll()
		m.setMessage(fmt.Sprintf("Started %d timer(s)", n), 2*time.Second)

	case "x":
		n := m.store.StopAll()
		m.setMessage(fmt.Sprintf("Stopped %d timer(s)", n), 2*time.Second)

	case "a":
		m.adding = true
		m.input = ""
		m.err = nil
	}

	return m, nil
}

// handleInputKey edits the add prompt.
func (m *DashboardModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.adding = false
		m.input = ""
	case tea.KeyEnter:
		if m.addFromInput() {
			m.adding = false
			m.input = ""
		}
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// addFromInput parses "name, schedule" and adds the timer. It reports
// whether the prompt can close.
func (m *DashboardModel) addFromInput() bool {
	name, schedule, ok := parser.SplitNameAndTarget(m.input)
	if !ok {
		m.err = fmt.Errorf("expected 'name, schedule', e.g. 'tea, 5m'")
		return false
	}
	target, err := parser.ParseTarget(schedule, m.clock.Now())
	if err != nil {
		m.err = err
		return false
	}
	id, err := m.store.Add(name, target, "")
	if err != nil {
		m.err = err
		return false
	}
	m.selected = id
	m.setTimers(m.store.List())
	m.err = nil
	m.setMessage(fmt.Sprintf("Added %s", name), 2*time.Second)
	return true
}

func (m *DashboardModel) report(err error, success string) {
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	if success != "" {
		m.setMessage(success, 2*time.Second)
	}
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	list := NewListComponent(m.timers, m.cursor, m.width, m.clock.Now())
	sections = append(sections, list.View())

	if m.adding {
		input := &InputComponent{Value: m.input, Width: m.width}
		sections = append(sections, input.View())
	}

	sections = append(sections, HelpBar(m.adding))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the dashboard header.
func (m *DashboardModel) renderHeader() string {
	title := StyleTitle.Render("tickwatch")
	now := m.clock.Now().Format("Mon Jan 2, 15:04:05")
	timeStr := StyleSubtitle.Render(now)

	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", timeStr) + "\n"
}

// setMessage sets a temporary message.
func (m *DashboardModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = time.Now().Add(duration)
}

// tickCmd returns a command that sends a tick message.
func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the subscription for the next store event.
func (m *DashboardModel) waitForEvent() tea.Cmd {
	ch := m.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Run starts the dashboard TUI and blocks until the user quits.
func Run(config DashboardConfig) error {
	if config.Events == nil && config.Store.Bus() != nil {
		ch, unsubscribe := config.Store.Bus().Subscribe(eventBuffer)
		defer unsubscribe()
		config.Events = ch
	}
	p := tea.NewProgram(NewDashboardModel(config), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
