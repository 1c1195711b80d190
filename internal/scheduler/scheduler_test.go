package scheduler

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/storage"
	"github.com/manav03panchal/tickwatch/internal/store"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type memGateway struct {
	mu      sync.Mutex
	saves   int
	saveErr error
}

func (g *memGateway) Load() ([]model.TimerEntry, error) { return nil, nil }

func (g *memGateway) Save([]model.TimerEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves++
	return g.saveErr
}

func (g *memGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

// fakeDispatcher completes every launch synchronously.
type fakeDispatcher struct {
	mu   sync.Mutex
	ran  []string
	fail error
}

func (d *fakeDispatcher) Run(entry model.TimerEntry, done func(error)) {
	d.mu.Lock()
	d.ran = append(d.ran, entry.ActionPath)
	d.mu.Unlock()
	var err error
	if d.fail != nil {
		err = errors.NewDispatchError(entry.ID, entry.ActionPath, d.fail)
	}
	done(err)
}

func (d *fakeDispatcher) Wait() {}

func (d *fakeDispatcher) launched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ran...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (n *fakeNotifier) Post(notif *model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notif)
}

func (n *fakeNotifier) Wait() {}

type fixture struct {
	clock      *clock.Fake
	bus        *events.Bus
	gateway    *memGateway
	store      *store.Store
	dispatcher *fakeDispatcher
	notifier   *fakeNotifier
	history    *storage.HistoryRepo
	sched      *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		clock:      clock.NewFake(t0),
		bus:        events.NewBus(),
		gateway:    &memGateway{},
		dispatcher: &fakeDispatcher{},
		notifier:   &fakeNotifier{},
		history:    storage.NewHistoryRepo(db),
	}
	f.store = store.New(store.Options{
		Clock:           f.clock,
		Bus:             f.bus,
		Gateway:         f.gateway,
		ActionValidator: func(p string) (string, error) { return p, nil },
	})
	f.sched = New(Options{
		Store:              f.store,
		Clock:              f.clock,
		Dispatcher:         f.dispatcher,
		Notifier:           f.notifier,
		History:            f.history,
		CheckpointInterval: 10 * time.Second,
	})
	return f
}

func (f *fixture) tick() store.AdvanceResult {
	return f.sched.Tick(f.clock.Advance(time.Second))
}

func (f *fixture) startCountdown(t *testing.T, name string, secs int64, action string) string {
	t.Helper()
	id, err := f.store.Add(name, model.CountdownTarget(secs), action)
	require.NoError(t, err)
	require.NoError(t, f.store.SetActive(id, true))
	return id
}

func TestNew(t *testing.T) {
	s := New(Options{Store: store.New(store.Options{})})
	assert.NotNil(t, s.cron)
	assert.Equal(t, DefaultTickSpec, s.tickSpec)
	assert.Equal(t, DefaultSleepThreshold, s.sleepThreshold)
	assert.Equal(t, DefaultCheckpointInterval, s.checkpointInterval)
	assert.True(t, s.NextRun().IsZero())
}

func TestCountdownExpiresAfterDurationTicks(t *testing.T) {
	f := newFixture(t)
	id := f.startCountdown(t, "tea", 60, "")

	var expired []string
	f.bus.OnExpired(func(id, name, _ string) { expired = append(expired, name) })

	for i := 0; i < 59; i++ {
		res := f.tick()
		require.Empty(t, res.Expired, "tick %d", i+1)
	}
	e, err := f.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Remaining)

	res := f.tick()
	require.Len(t, res.Expired, 1)
	assert.Equal(t, []string{"tea"}, expired)

	_, err = f.store.Get(id)
	assert.True(t, errors.IsNotFound(err), "countdowns are removed on expiry")

	f.sched.Wait()
	recs, err := f.history.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].TimerID)
	assert.Equal(t, model.KindCountdown, recs[0].Kind)
	assert.False(t, recs[0].Failed())

	assert.Equal(t, int64(60), f.sched.Stats().Ticks())
	assert.Equal(t, int64(1), f.sched.Stats().Expiries())
}

func TestAlarmExpiresAndIsRetained(t *testing.T) {
	f := newFixture(t)
	id, err := f.store.Add("standup", model.AlarmTarget(t0.Add(5*time.Second)), "")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		res := f.tick()
		require.Empty(t, res.Expired)
	}
	res := f.tick()
	require.Len(t, res.Expired, 1)

	e, err := f.store.Get(id)
	require.NoError(t, err)
	assert.False(t, e.Active)
	assert.True(t, e.Dismissed)

	// A consumed alarm is not re-armed by later ticks.
	for i := 0; i < 3; i++ {
		assert.Empty(t, f.tick().Expired)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	f := newFixture(t)
	f.startCountdown(t, "short", 2, "")
	id, err := f.store.Add("soon", model.AlarmTarget(t0.Add(3*time.Second)), "")
	require.NoError(t, err)

	var seen []int64
	f.bus.OnTick(func(_ string, remaining int64) { seen = append(seen, remaining) })

	// Jump well past the alarm.
	f.sched.Tick(f.clock.Advance(time.Minute))
	f.tick()
	f.tick()

	for _, r := range seen {
		assert.GreaterOrEqual(t, r, int64(0))
	}
	e, err := f.store.Get(id)
	require.NoError(t, err)
	assert.True(t, e.Dismissed)
}

func TestExpiryLaunchesAction(t *testing.T) {
	f := newFixture(t)
	f.startCountdown(t, "build", 1, "/usr/local/bin/chime")
	f.startCountdown(t, "quiet", 1, "")

	res := f.tick()
	require.Len(t, res.Expired, 2)
	f.sched.Wait()

	assert.Equal(t, []string{"/usr/local/bin/chime"}, f.dispatcher.launched())
	n, err := f.history.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.notifier.sent, 2)
	assert.Equal(t, model.NotifyCountdown, f.notifier.sent[0].Type)
}

func TestDispatchFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.fail = stderrors.New("no such file")
	f.startCountdown(t, "build", 1, "/missing")

	f.tick()
	f.sched.Wait()

	recs, err := f.history.List(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Failed())
	assert.Contains(t, recs[0].DispatchError, "no such file")
	assert.Equal(t, int64(1), f.sched.Stats().DispatchFailures())
}

func TestWithoutOptionalCollaborators(t *testing.T) {
	f := newFixture(t)
	s := New(Options{Store: f.store, Clock: f.clock})
	f.startCountdown(t, "bare", 1, "/bin/true")

	res := s.Tick(f.clock.Advance(time.Second))
	assert.Len(t, res.Expired, 1)
	s.Wait()
}

func TestGapIsLoggedButCountdownAdvancesOneSecond(t *testing.T) {
	f := newFixture(t)
	id := f.startCountdown(t, "tea", 30, "")

	f.tick()
	f.sched.Tick(f.clock.Advance(20 * time.Second))

	e, err := f.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(28), e.Remaining)
	assert.Equal(t, int64(1), f.sched.Stats().Snapshot().Gaps)
}

func TestCheckpoint(t *testing.T) {
	f := newFixture(t)
	f.startCountdown(t, "long", 3600, "")
	base := f.gateway.count()

	for i := 0; i < 9; i++ {
		f.tick()
	}
	assert.Equal(t, base, f.gateway.count(), "no checkpoint before the interval")

	f.tick()
	assert.Equal(t, base+1, f.gateway.count())

	// Nothing active, nothing to checkpoint.
	f.store.StopAll()
	base = f.gateway.count()
	for i := 0; i < 20; i++ {
		f.tick()
	}
	assert.Equal(t, base, f.gateway.count())
}

func TestPersistFailuresCounted(t *testing.T) {
	f := newFixture(t)
	f.startCountdown(t, "tea", 1, "")
	f.gateway.saveErr = stderrors.New("read-only file system")

	res := f.tick()
	require.Error(t, res.PersistErr)
	assert.Equal(t, int64(1), f.sched.Stats().PersistFailures())
	assert.Contains(t, f.sched.Stats().Snapshot().LastError, "read-only")
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.Start())
	require.NoError(t, f.sched.Start(), "second start is a no-op")
	assert.False(t, f.sched.NextRun().IsZero())

	base := f.gateway.count()
	require.NoError(t, f.sched.Stop())
	assert.Equal(t, base+1, f.gateway.count(), "stop writes a final checkpoint")
}

func TestStartRejectsBadSpec(t *testing.T) {
	f := newFixture(t)
	s := New(Options{Store: f.store, Clock: f.clock, TickSpec: "every second"})
	assert.Error(t, s.Start())
}

func TestStatsNotifications(t *testing.T) {
	s := NewStats()
	s.RecordNotification(nil)
	s.RecordNotification(stderrors.New("503"))

	snap := s.Snapshot()
	assert.Equal(t, int64(1), snap.NotificationsSent)
	assert.Equal(t, int64(1), snap.NotificationsFailed)
	assert.Equal(t, "503", snap.LastError)
	assert.NotNil(t, snap.LastErrorAt)

	data, err := s.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"notifications_failed_total": 1`)
}
