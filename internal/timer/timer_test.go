package timer

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/store"
)

var t0 = time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)

// syncBuffer guards a bytes.Buffer written by the watch goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{-1, "00:00"},
		{0, "00:00"},
		{59, "00:59"},
		{25 * 60, "25:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatClock(tt.seconds))
	}
}

func TestRenderTimer(t *testing.T) {
	cd := &CountdownDisplay{UseColor: false}

	t.Run("countdown", func(t *testing.T) {
		e := model.TimerEntry{Name: "tea", Kind: model.KindCountdown, Duration: 300, Remaining: 150, Active: true}
		out := cd.RenderTimer(e, t0)
		assert.Contains(t, out, "COUNTDOWN tea")
		assert.Contains(t, out, "02:30")
		assert.Contains(t, out, "50%")
		assert.Contains(t, out, "SPACE to stop")
	})

	t.Run("stopped_alarm", func(t *testing.T) {
		e := model.TimerEntry{Name: "standup", Kind: model.KindAlarm, TriggerAt: t0.Add(2 * time.Hour)}
		out := cd.RenderTimer(e, t0)
		assert.Contains(t, out, "ALARM standup")
		assert.Contains(t, out, "02:00:00")
		assert.Contains(t, out, "Today at 12:00 PM")
		assert.Contains(t, out, "[STOPPED]")
	})

	t.Run("dismissed_alarm", func(t *testing.T) {
		e := model.TimerEntry{Name: "standup", Kind: model.KindAlarm, TriggerAt: t0, Dismissed: true}
		assert.Contains(t, cd.RenderTimer(e, t0), "[DONE]")
	})
}

func TestRenderProgressBar(t *testing.T) {
	cd := &CountdownDisplay{}
	assert.Equal(t, "[░░░░] 0%", cd.renderProgressBar(-1, 4))
	assert.Equal(t, "[██░░] 50%", cd.renderProgressBar(0.5, 4))
	assert.Equal(t, "[████] 100%", cd.renderProgressBar(2, 4))
}

func TestRenderExpired(t *testing.T) {
	cd := &CountdownDisplay{}
	assert.Equal(t, "tea finished!", cd.RenderExpired(model.TimerEntry{Name: "tea", Kind: model.KindCountdown}))

	out := cd.RenderExpired(model.TimerEntry{Name: "standup", Kind: model.KindAlarm, ActionPath: "/bin/chime"})
	assert.Contains(t, out, "standup went off!")
	assert.Contains(t, out, "Launched /bin/chime")
}

type watchFixture struct {
	store *store.Store
	clock *clock.Fake
	out   *syncBuffer
	watch *Watch
	evs   <-chan events.Event
	done  chan Outcome
}

func newWatchFixture(t *testing.T, target model.Target) *watchFixture {
	t.Helper()
	fc := clock.NewFake(t0)
	s := store.New(store.Options{Clock: fc, Bus: events.NewBus()})
	id, err := s.Add("tea", target, "")
	require.NoError(t, err)

	out := &syncBuffer{}
	w := NewWatch(s, id)
	w.SetClock(fc)
	w.SetDisplay(&CountdownDisplay{Writer: out})

	evs, unsubscribe := s.Bus().Subscribe(64)
	t.Cleanup(unsubscribe)
	return &watchFixture{store: s, clock: fc, out: out, watch: w, evs: evs, done: make(chan Outcome, 1)}
}

func (f *watchFixture) run() {
	go func() {
		outcome, _ := f.watch.loop(context.Background(), f.evs, make(chan os.Signal))
		f.done <- outcome
	}()
}

func (f *watchFixture) wait(t *testing.T) Outcome {
	t.Helper()
	select {
	case o := <-f.done:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not finish")
		return OutcomeQuit
	}
}

func TestWatchUntilExpired(t *testing.T) {
	f := newWatchFixture(t, model.CountdownTarget(2))
	require.NoError(t, f.store.SetActive(f.watch.id, true))
	f.run()

	f.store.Advance(f.clock.Advance(time.Second))
	f.store.Advance(f.clock.Advance(time.Second))

	assert.Equal(t, OutcomeExpired, f.wait(t))
	assert.Contains(t, f.out.String(), "tea finished!")
}

func TestWatchToggleAndQuit(t *testing.T) {
	f := newWatchFixture(t, model.CountdownTarget(60))
	f.run()

	f.watch.Toggle()
	require.Eventually(t, func() bool {
		e, err := f.store.Get(f.watch.id)
		return err == nil && e.Active
	}, time.Second, 10*time.Millisecond)

	f.watch.Quit()
	assert.Equal(t, OutcomeQuit, f.wait(t))
}

func TestWatchRemoved(t *testing.T) {
	f := newWatchFixture(t, model.CountdownTarget(60))
	f.run()

	// Wait for the first render so the loop is running.
	require.Eventually(t, func() bool { return f.out.String() != "" }, time.Second, 10*time.Millisecond)
	require.NoError(t, f.store.Remove(f.watch.id))
	assert.Equal(t, OutcomeRemoved, f.wait(t))
}

func TestWatchUnknownTimer(t *testing.T) {
	s := store.New(store.Options{Bus: events.NewBus()})
	w := NewWatch(s, "missing")
	outcome, err := w.loop(context.Background(), nil, nil)
	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Error(t, err)
}
