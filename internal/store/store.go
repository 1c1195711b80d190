// Package store is the authoritative in-memory collection of timers.
//
// Every command and every tick runs under one mutex, so no caller ever sees
// a half-applied mutation. Events are queued in commit order while the lock
// is held and delivered after it is released, which lets subscribers call
// back into the store. Only one goroutine delivers at a time, so a
// subscriber never sees an older list-changed snapshot after a newer one.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/validate"
)

// DefaultAlarmTolerance absorbs the race between parsing an alarm time and
// validating it against the clock.
const DefaultAlarmTolerance = 5 * time.Second

// minRefPrefix is the shortest id prefix Resolve accepts.
const minRefPrefix = 4

// Gateway is the durable backing of the store.
type Gateway interface {
	Load() ([]model.TimerEntry, error)
	Save(entries []model.TimerEntry) error
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	Clock          clock.Clock
	Bus            *events.Bus
	Gateway        Gateway // nil keeps timers in memory only
	AlarmTolerance time.Duration
	// ActionValidator cleans and checks action paths. Defaults to
	// validate.ActionPath.
	ActionValidator func(path string) (string, error)
}

// Store owns all timer entries.
type Store struct {
	mu      sync.Mutex
	entries []model.TimerEntry

	// pubMu guards pending and delivering. It may be taken while holding
	// mu, never the other way round.
	pubMu      sync.Mutex
	pending    []events.Event
	delivering bool

	clock          clock.Clock
	bus            *events.Bus
	gateway        Gateway
	tolerance      time.Duration
	validateAction func(string) (string, error)
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.System
	}
	if opts.AlarmTolerance <= 0 {
		opts.AlarmTolerance = DefaultAlarmTolerance
	}
	if opts.ActionValidator == nil {
		opts.ActionValidator = validate.ActionPath
	}
	return &Store{
		clock:          opts.Clock,
		bus:            opts.Bus,
		gateway:        opts.Gateway,
		tolerance:      opts.AlarmTolerance,
		validateAction: opts.ActionValidator,
	}
}

// Bus returns the event bus the store publishes on. It may be nil.
func (s *Store) Bus() *events.Bus {
	return s.bus
}

// Load replaces the contents of the store with what the gateway holds.
// A gateway error is returned after whatever could be read is installed;
// it is also published on the bus.
func (s *Store) Load() error {
	if s.gateway == nil {
		return nil
	}

	s.mu.Lock()
	entries, err := s.gateway.Load()
	s.entries = append([]model.TimerEntry(nil), entries...)
	s.queueLocked(events.ListChanged(s.snapshotLocked()))
	if err != nil {
		s.queueLocked(events.Failure(err))
	}
	s.mu.Unlock()

	if err != nil {
		logging.Warn("timers file could not be fully loaded", logging.KeyError, err)
	}
	logging.DebugLog("timers loaded", logging.KeyCount, len(entries))
	s.deliver()
	return err
}

// Add validates and inserts a new timer, returning its id.
// Countdowns start stopped; alarms start active when their time is ahead.
func (s *Store) Add(name string, target model.Target, actionPath string) (string, error) {
	name, err := validate.TimerName(name)
	if err != nil {
		return "", err
	}
	actionPath, err = s.validateAction(actionPath)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	now := s.clock.Now()
	if err := s.validateTargetLocked(target, now); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if s.nameTakenLocked(name, "") {
		s.mu.Unlock()
		return "", duplicateName(name)
	}

	e := model.TimerEntry{
		ID:         uuid.NewString(),
		Name:       name,
		ActionPath: actionPath,
	}
	e.Reset(target, now)
	s.entries = append(s.entries, e)
	evs := s.commitLocked("add")
	s.queueLocked(evs...)
	s.mu.Unlock()

	logging.Info("timer added",
		logging.KeyTimerID, e.ID,
		logging.KeyTimerName, e.Name,
		logging.KeyKind, e.Kind)
	s.deliver()
	return e.ID, nil
}

// Edit changes a timer's name, schedule and action. Uniqueness ignores the
// timer's own current name. A changed schedule reinitialises run state as on
// creation; a rename or new action keeps it. An unchanged action path is
// not re-checked.
func (s *Store) Edit(id, name string, target model.Target, actionPath string) error {
	name, err := validate.TimerName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return errors.NewNotFoundError(id)
	}
	// The stored action was checked when it was set; a program removed since
	// then must not block a rename.
	if actionPath != s.entries[idx].ActionPath {
		if actionPath, err = s.validateAction(actionPath); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	if s.nameTakenLocked(name, id) {
		s.mu.Unlock()
		return duplicateName(name)
	}

	now := s.clock.Now()
	cur := s.entries[idx]
	retarget := !cur.Target().Equal(target)
	if retarget {
		if err := s.validateTargetLocked(target, now); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	if !retarget && cur.Name == name && cur.ActionPath == actionPath {
		s.mu.Unlock()
		return nil
	}

	e := cur
	e.Name = name
	e.ActionPath = actionPath
	if retarget {
		e.Reset(target, now)
	}
	s.entries[idx] = e
	evs := s.commitLocked("edit")
	s.queueLocked(evs...)
	s.mu.Unlock()

	logging.Info("timer edited",
		logging.KeyTimerID, id,
		logging.KeyTimerName, name,
		"retarget", retarget)
	s.deliver()
	return nil
}

// Remove deletes a timer whether or not it is running.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return errors.NewNotFoundError(id)
	}
	name := s.entries[idx].Name
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	evs := s.commitLocked("remove")
	s.queueLocked(evs...)
	s.mu.Unlock()

	logging.Info("timer removed", logging.KeyTimerID, id, logging.KeyTimerName, name)
	s.deliver()
	return nil
}

// SetActive starts or stops a timer. Requesting the current state is a
// no-op that publishes nothing, with one exception: stopping an inactive
// alarm that is due but not yet armed dismisses it, so the next tick does
// not fire it. Starting a countdown that has run out rewinds it to its full
// duration. An alarm whose time has passed cannot be started.
func (s *Store) SetActive(id string, active bool) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return errors.NewNotFoundError(id)
	}

	now := s.clock.Now()
	e := s.entries[idx]
	var changed bool
	if active {
		if e.IsAlarm() && !e.Active && e.Due(now) {
			s.mu.Unlock()
			return errors.NewValidationError(errors.ErrAlarmInPast, "at", e.Name,
				"alarm time has passed; edit it to a new time")
		}
		changed = start(&e)
	} else {
		changed = stop(&e, now)
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}

	s.entries[idx] = e
	evs := s.commitLocked("set_active")
	s.queueLocked(evs...)
	s.mu.Unlock()

	logging.Info("timer state changed",
		logging.KeyTimerID, id,
		logging.KeyTimerName, e.Name,
		"active", active)
	s.deliver()
	return nil
}

// StartAll starts every timer that can run. Alarms whose time has passed
// are skipped. It returns how many timers changed state.
func (s *Store) StartAll() int {
	return s.batch("start_all", func(e *model.TimerEntry, now time.Time) bool {
		if e.IsAlarm() && !e.Active && e.Due(now) {
			return false
		}
		return start(e)
	})
}

// StopAll stops every timer. It returns how many timers changed state.
func (s *Store) StopAll() int {
	return s.batch("stop_all", stop)
}

func (s *Store) batch(op string, apply func(e *model.TimerEntry, now time.Time) bool) int {
	s.mu.Lock()
	now := s.clock.Now()
	changed := 0
	for i := range s.entries {
		if apply(&s.entries[i], now) {
			changed++
		}
	}
	if changed == 0 {
		s.mu.Unlock()
		return 0
	}
	evs := s.commitLocked(op)
	s.queueLocked(evs...)
	s.mu.Unlock()

	logging.Info("timers changed", logging.KeyOperation, op, logging.KeyCount, changed)
	s.deliver()
	return changed
}

func start(e *model.TimerEntry) bool {
	if e.Active {
		return false
	}
	if e.IsCountdown() && e.Remaining <= 0 {
		e.Remaining = e.Duration
	}
	e.Active = true
	e.Dismissed = false
	return true
}

// stop deactivates e. An inactive alarm still waiting to be armed counts as
// running, so stopping it dismisses it.
func stop(e *model.TimerEntry, now time.Time) bool {
	if e.Active {
		e.Active = false
		if e.IsAlarm() {
			e.Dismissed = true
		}
		return true
	}
	if e.IsAlarm() && !e.Dismissed && e.Due(now) {
		e.Dismissed = true
		return true
	}
	return false
}

// Get returns a copy of one timer.
func (s *Store) Get(id string) (model.TimerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.TimerEntry{}, errors.NewNotFoundError(id)
	}
	return s.entries[idx], nil
}

// List returns a copy of all timers in creation order.
func (s *Store) List() []model.TimerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of timers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Resolve finds a timer by exact id, exact name, or unique id prefix of at
// least four characters.
func (s *Store) Resolve(ref string) (model.TimerEntry, error) {
	ref = strings.TrimSpace(ref)

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexLocked(ref); idx >= 0 {
		return s.entries[idx], nil
	}
	for _, e := range s.entries {
		if e.Name == ref {
			return e, nil
		}
	}

	if len(ref) >= minRefPrefix {
		var matches []model.TimerEntry
		for _, e := range s.entries {
			if strings.HasPrefix(e.ID, ref) {
				matches = append(matches, e)
			}
		}
		switch len(matches) {
		case 1:
			return matches[0], nil
		case 0:
		default:
			return model.TimerEntry{}, errors.NewValidationError(errors.ErrAmbiguousRef, "ref", ref,
				"timer reference matches more than one timer")
		}
	}
	return model.TimerEntry{}, errors.NewNotFoundError(ref)
}

// Flush writes the current state to the gateway. The scheduler calls it to
// checkpoint countdown progress and on shutdown.
func (s *Store) Flush() error {
	if s.gateway == nil {
		return nil
	}
	s.mu.Lock()
	err := s.gateway.Save(s.snapshotLocked())
	if err != nil {
		s.queueLocked(events.Failure(err))
	}
	s.mu.Unlock()

	if err != nil {
		logging.Warn("failed to save timers", logging.KeyOperation, "flush", logging.KeyError, err)
		s.deliver()
	}
	return err
}

func duplicateName(name string) error {
	return errors.NewValidationError(errors.ErrDuplicateName, "name", name, "a timer with this name already exists")
}

func (s *Store) validateTargetLocked(target model.Target, now time.Time) error {
	switch target.Kind {
	case model.KindCountdown:
		return validate.Duration(target.Duration)
	case model.KindAlarm:
		return validate.AlarmTime(target.TriggerAt, now, s.tolerance)
	default:
		return errors.NewValidationError(errors.ErrInvalidKind, "kind", string(target.Kind), "unknown timer kind")
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) nameTakenLocked(name, exceptID string) bool {
	for _, e := range s.entries {
		if e.Name == name && e.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) snapshotLocked() []model.TimerEntry {
	out := make([]model.TimerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// commitLocked persists the collection and returns the events describing
// the change. A failed save is reported, never returned: memory stays
// authoritative and the next mutation retries the write.
func (s *Store) commitLocked(op string) []events.Event {
	snap := s.snapshotLocked()
	evs := []events.Event{events.ListChanged(snap)}
	if s.gateway == nil {
		return evs
	}
	if err := s.gateway.Save(snap); err != nil {
		logging.Warn("failed to save timers", logging.KeyOperation, op, logging.KeyError, err)
		evs = append(evs, events.Failure(err))
	}
	return evs
}

// queueLocked appends evs to the delivery queue. Called with mu held, so the
// queue order is the commit order.
func (s *Store) queueLocked(evs ...events.Event) {
	if s.bus == nil || len(evs) == 0 {
		return
	}
	s.pubMu.Lock()
	s.pending = append(s.pending, evs...)
	s.pubMu.Unlock()
}

// deliver publishes queued events. If another goroutine is already
// delivering, it returns at once and that goroutine publishes these events
// after the ones queued before them.
func (s *Store) deliver() {
	s.pubMu.Lock()
	if s.delivering {
		s.pubMu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		evs := s.pending
		s.pending = nil
		s.pubMu.Unlock()
		s.bus.Publish(evs...)
		s.pubMu.Lock()
	}
	s.delivering = false
	s.pubMu.Unlock()
}
