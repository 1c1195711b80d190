package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/model"
)

func TestSubscribeReceivesEvents(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(4)
	defer unsubscribe()

	bus.Publish(Tick("a", 3), Expired("a", "tea", "/bin/true"))

	ev := <-ch
	assert.Equal(t, TypeTick, ev.Type)
	assert.Equal(t, "a", ev.TimerID)
	assert.Equal(t, int64(3), ev.Remaining)

	ev = <-ch
	assert.Equal(t, TypeExpired, ev.Type)
	assert.Equal(t, "tea", ev.Name)
	assert.Equal(t, "/bin/true", ev.ActionPath)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	bus.Publish(Tick("a", 3), Tick("a", 2), Tick("a", 1))

	ev := <-ch
	assert.Equal(t, int64(3), ev.Remaining)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(1)
	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
	bus.Publish(Tick("a", 1))
}

func TestTypedHandlers(t *testing.T) {
	bus := NewBus()

	var lists [][]model.TimerEntry
	var ticks []int64
	var expired []string
	var errs []error

	bus.OnListChanged(func(timers []model.TimerEntry) { lists = append(lists, timers) })
	bus.OnTick(func(id string, remaining int64) { ticks = append(ticks, remaining) })
	bus.OnExpired(func(id, name, actionPath string) { expired = append(expired, name) })
	bus.OnError(func(err error) { errs = append(errs, err) })

	boom := errors.New("boom")
	bus.Publish(
		ListChanged([]model.TimerEntry{{ID: "a", Name: "tea"}}),
		Tick("a", 9),
		Expired("a", "tea", ""),
		Failure(boom),
	)

	require.Len(t, lists, 1)
	assert.Equal(t, "tea", lists[0][0].Name)
	assert.Equal(t, []int64{9}, ticks)
	assert.Equal(t, []string{"tea"}, expired)
	assert.Equal(t, []error{boom}, errs)
}

func TestHandlerUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	off := bus.OnTick(func(string, int64) { calls++ })

	bus.Publish(Tick("a", 1))
	off()
	bus.Publish(Tick("a", 0))

	assert.Equal(t, 1, calls)
}

func TestHandlerMayPublish(t *testing.T) {
	bus := NewBus()
	var got []Type
	bus.Handle(func(ev Event) { got = append(got, ev.Type) })
	bus.OnExpired(func(id, name, actionPath string) {
		bus.Publish(Failure(errors.New("launch failed")))
	})

	bus.Publish(Expired("a", "tea", "/missing"))
	assert.Contains(t, got, TypeError)
}

func TestClose(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(1)
	bus.Close()
	bus.Close()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := bus.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)

	bus.Publish(Tick("a", 1))
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Tick("a", 1)) })
}
