package timer

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/store"
)

// Outcome is how a watch ended.
type Outcome int

const (
	OutcomeQuit Outcome = iota
	OutcomeExpired
	OutcomeRemoved
)

// Watch follows one timer in the terminal until it fires, is removed, or the
// user quits. The scheduler must be running elsewhere in the process.
type Watch struct {
	store   *store.Store
	clock   clock.Clock
	id      string
	display *CountdownDisplay
	raw     bool
	lastErr error

	// Control channels
	toggleCh chan struct{}
	quitCh   chan struct{}
}

// NewWatch creates a watch for the timer with the given id.
func NewWatch(s *store.Store, id string) *Watch {
	return &Watch{
		store:    s,
		clock:    clock.System,
		id:       id,
		display:  NewCountdownDisplay(),
		toggleCh: make(chan struct{}, 1),
		quitCh:   make(chan struct{}, 1),
	}
}

// SetClock sets the clock used to render alarm times.
func (w *Watch) SetClock(c clock.Clock) {
	w.clock = c
}

// SetDisplay sets the countdown display.
func (w *Watch) SetDisplay(display *CountdownDisplay) {
	w.display = display
}

// Toggle starts or stops the watched timer.
func (w *Watch) Toggle() {
	select {
	case w.toggleCh <- struct{}{}:
	default:
	}
}

// Quit ends the watch.
func (w *Watch) Quit() {
	select {
	case w.quitCh <- struct{}{}:
	default:
	}
}

// Run blocks until the watch ends. When stdin is a terminal it is switched
// to raw mode so single key presses control the timer.
func (w *Watch) Run(ctx context.Context) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return OutcomeQuit, err
		}
		defer term.Restore(fd, oldState)
		w.raw = true
		go w.listenKeyboard(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	evs, unsubscribe := w.store.Bus().Subscribe(64)
	defer unsubscribe()

	return w.loop(ctx, evs, sigCh)
}

func (w *Watch) loop(ctx context.Context, evs <-chan events.Event, sigCh <-chan os.Signal) (Outcome, error) {
	if _, err := w.store.Get(w.id); err != nil {
		return OutcomeRemoved, err
	}
	w.render()

	for {
		select {
		case <-ctx.Done():
			return OutcomeQuit, nil

		case <-sigCh:
			return OutcomeQuit, nil

		case <-w.quitCh:
			return OutcomeQuit, nil

		case <-w.toggleCh:
			if e, err := w.store.Get(w.id); err == nil {
				w.lastErr = w.store.SetActive(w.id, !e.Active)
			}
			w.render()

		case ev, ok := <-evs:
			if !ok {
				return OutcomeQuit, nil
			}
			switch {
			case ev.Type == events.TypeExpired && ev.TimerID == w.id:
				e, err := w.store.Get(w.id)
				if err != nil {
					// Countdowns are gone by now; the event has what we show.
					e.Name, e.ActionPath = ev.Name, ev.ActionPath
				}
				w.write(w.display.RenderExpired(e) + "\n")
				return OutcomeExpired, nil

			case ev.Type == events.TypeListChanged:
				if _, err := w.store.Get(w.id); err != nil {
					return OutcomeRemoved, nil
				}
				w.render()

			case ev.Type == events.TypeTick && ev.TimerID == w.id:
				w.render()
			}
		}
	}
}

// render updates the display.
func (w *Watch) render() {
	e, err := w.store.Get(w.id)
	if err != nil {
		return
	}

	w.display.MoveCursorHome()
	w.display.ClearScreen()

	out := w.display.RenderTimer(e, w.clock.Now())
	if w.lastErr != nil {
		out += "\n\n" + w.lastErr.Error()
	}
	w.write(out)
}

func (w *Watch) write(s string) {
	if w.raw {
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	w.display.Writer.Write([]byte(s))
}

// listenKeyboard listens for keyboard input.
func (w *Watch) listenKeyboard(ctx context.Context) {
	buf := make([]byte, 1)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Non-blocking read
			os.Stdin.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				continue
			}

			switch buf[0] {
			case ' ': // Space - start/stop
				w.Toggle()
			case 'q', 'Q', 3: // Q or Ctrl+C - quit
				w.Quit()
			}
		}
	}
}
