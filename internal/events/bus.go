// Package events delivers store and scheduler notifications to observers
// such as the dashboard and the CLI.
package events

import (
	"sync"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// Type identifies an event.
type Type string

// Event types.
const (
	TypeListChanged Type = "list_changed"
	TypeTick        Type = "tick"
	TypeExpired     Type = "expired"
	TypeError       Type = "error"
)

// Event is a single notification. Which fields are set depends on Type:
// ListChanged carries Timers; Tick carries TimerID and Remaining; Expired
// carries TimerID, Name and ActionPath; Error carries Err.
type Event struct {
	Type       Type
	Timers     []model.TimerEntry
	TimerID    string
	Name       string
	ActionPath string
	Remaining  int64
	Err        error
}

// ListChanged builds a list-changed event.
func ListChanged(timers []model.TimerEntry) Event {
	return Event{Type: TypeListChanged, Timers: timers}
}

// Tick builds a tick event.
func Tick(id string, remaining int64) Event {
	return Event{Type: TypeTick, TimerID: id, Remaining: remaining}
}

// Expired builds an expired event.
func Expired(id, name, actionPath string) Event {
	return Event{Type: TypeExpired, TimerID: id, Name: name, ActionPath: actionPath}
}

// Failure builds an error event.
func Failure(err error) Event {
	return Event{Type: TypeError, Err: err}
}

// Bus fans events out to channel subscribers and handler callbacks.
// Channel delivery never blocks: a full subscriber misses the event.
// Handlers run synchronously on the publishing goroutine.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	channels map[int]chan Event
	handlers map[int]func(Event)
	closed   bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		channels: make(map[int]chan Event),
		handlers: make(map[int]func(Event)),
	}
}

// Subscribe registers a buffered channel observer. The returned func
// unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.channels[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.channels[id]; ok {
				delete(b.channels, id)
				close(c)
			}
		})
	}
}

// Handle registers fn for every event and returns an unsubscribe func.
func (b *Bus) Handle(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// OnListChanged registers a handler for list-changed events.
func (b *Bus) OnListChanged(fn func(timers []model.TimerEntry)) func() {
	return b.Handle(func(ev Event) {
		if ev.Type == TypeListChanged {
			fn(ev.Timers)
		}
	})
}

// OnTick registers a handler for tick events.
func (b *Bus) OnTick(fn func(id string, remaining int64)) func() {
	return b.Handle(func(ev Event) {
		if ev.Type == TypeTick {
			fn(ev.TimerID, ev.Remaining)
		}
	})
}

// OnExpired registers a handler for expired events.
func (b *Bus) OnExpired(fn func(id, name, actionPath string)) func() {
	return b.Handle(func(ev Event) {
		if ev.Type == TypeExpired {
			fn(ev.TimerID, ev.Name, ev.ActionPath)
		}
	})
}

// OnError registers a handler for error events.
func (b *Bus) OnError(fn func(err error)) func() {
	return b.Handle(func(ev Event) {
		if ev.Type == TypeError {
			fn(ev.Err)
		}
	})
}

// Publish delivers events in order. Safe to call on a nil Bus.
func (b *Bus) Publish(evs ...Event) {
	if b == nil {
		return
	}
	for _, ev := range evs {
		b.publish(ev)
	}
}

func (b *Bus) publish(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	for _, ch := range b.channels {
		select {
		case ch <- ev:
		default:
		}
	}
	handlers := make([]func(Event), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.channels {
		delete(b.channels, id)
		close(ch)
	}
	b.handlers = make(map[int]func(Event))
}
