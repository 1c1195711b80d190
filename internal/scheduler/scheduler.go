// Package scheduler drives the timer store once per second and carries out
// the side effects of expiry.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/store"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTickSpec           = "* * * * * *"
	DefaultSleepThreshold     = 5 * time.Second
	DefaultCheckpointInterval = 30 * time.Second
)

// Dispatcher launches the action attached to an expired entry.
type Dispatcher interface {
	Run(entry model.TimerEntry, done func(error))
	Wait()
}

// Notifier posts expiry notifications.
type Notifier interface {
	Post(n *model.Notification)
	Wait()
}

// History records fired entries.
type History interface {
	Append(rec *model.FiredRecord) error
}

// Options configures a Scheduler. Store is required.
type Options struct {
	Store      *store.Store
	Clock      clock.Clock
	Dispatcher Dispatcher // nil skips actions
	Notifier   Notifier   // nil skips webhooks
	History    History    // nil skips history

	TickSpec           string
	SleepThreshold     time.Duration
	CheckpointInterval time.Duration // <= 0 uses the default
}

// Scheduler ticks the store on a cron schedule.
type Scheduler struct {
	cron  *cron.Cron
	store *store.Store
	clock clock.Clock

	dispatcher Dispatcher
	notifier   Notifier
	history    History

	tickSpec           string
	sleepThreshold     time.Duration
	checkpointInterval time.Duration

	stats *Stats

	mu       sync.Mutex
	lastTick time.Time
	lastSave time.Time
	started  bool
	pending  sync.WaitGroup // history appends waiting on a launch
}

// New creates a scheduler. It does nothing until Start.
func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.System
	}
	if opts.TickSpec == "" {
		opts.TickSpec = DefaultTickSpec
	}
	if opts.SleepThreshold <= 0 {
		opts.SleepThreshold = DefaultSleepThreshold
	}
	if opts.CheckpointInterval <= 0 {
		opts.CheckpointInterval = DefaultCheckpointInterval
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		store:              opts.Store,
		clock:              opts.Clock,
		dispatcher:         opts.Dispatcher,
		notifier:           opts.Notifier,
		history:            opts.History,
		tickSpec:           opts.TickSpec,
		sleepThreshold:     opts.SleepThreshold,
		checkpointInterval: opts.CheckpointInterval,
		stats:              NewStats(),
		lastSave:           opts.Clock.Now(),
	}
}

// Stats returns the scheduler's counters.
func (s *Scheduler) Stats() *Stats {
	return s.stats
}

// Start registers the tick job and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	_, err := s.cron.AddFunc(s.tickSpec, func() {
		s.Tick(s.clock.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to add tick job %q: %w", s.tickSpec, err)
	}

	now := s.clock.Now()
	s.lastTick = now
	s.lastSave = now
	s.started = true
	s.cron.Start()

	logging.Info("scheduler started", "spec", s.tickSpec)
	return nil
}

// Stop halts ticking, waits for in-flight side effects and writes a final
// checkpoint.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if started {
		<-s.cron.Stop().Done()
	}
	s.Wait()

	err := s.store.Flush()
	if err != nil {
		s.stats.RecordPersistFailure(err)
	}
	logging.Info("scheduler stopped", logging.KeyCount, s.stats.Ticks())
	return err
}

// Wait blocks until every action launch, history append and webhook post
// started by past ticks has finished.
func (s *Scheduler) Wait() {
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	s.pending.Wait()
	if s.notifier != nil {
		s.notifier.Wait()
	}
}

// Tick runs one evaluation at now and starts the expiry side effects.
func (s *Scheduler) Tick(now time.Time) store.AdvanceResult {
	s.mu.Lock()
	if !s.lastTick.IsZero() {
		if gap := now.Sub(s.lastTick); gap > s.sleepThreshold {
			logging.Warn("tick arrived late, system may have slept",
				logging.KeyGap, gap.Round(time.Second).String())
			s.stats.RecordGap()
		}
	}
	s.lastTick = now
	s.mu.Unlock()

	res := s.store.Advance(now)
	s.stats.RecordTick(len(res.Expired))
	if res.PersistErr != nil {
		s.stats.RecordPersistFailure(res.PersistErr)
	}

	for _, e := range res.Expired {
		s.fire(e, now)
	}

	s.checkpoint(now, res)
	return res
}

func (s *Scheduler) fire(e model.TimerEntry, now time.Time) {
	rec := model.NewFiredRecord(e, now)

	if s.notifier != nil {
		s.notifier.Post(model.NewExpiryNotification(e, now))
	}

	if e.ActionPath == "" || s.dispatcher == nil {
		s.record(rec)
		return
	}

	s.pending.Add(1)
	s.dispatcher.Run(e, func(err error) {
		defer s.pending.Done()
		if err != nil {
			rec.DispatchError = err.Error()
			s.stats.RecordDispatchFailure(err)
		}
		s.record(rec)
	})
}

func (s *Scheduler) record(rec *model.FiredRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(rec); err != nil {
		logging.Warn("failed to record history",
			logging.KeyTimerID, rec.TimerID,
			logging.KeyError, err)
	}
}

// checkpoint saves countdown progress every checkpointInterval. Ticks that
// changed the collection have already saved.
func (s *Scheduler) checkpoint(now time.Time, res store.AdvanceResult) {
	s.mu.Lock()
	if res.Changed {
		s.lastSave = now
		s.mu.Unlock()
		return
	}
	due := res.Ticked > 0 && now.Sub(s.lastSave) >= s.checkpointInterval
	if due {
		s.lastSave = now
	}
	s.mu.Unlock()

	if !due {
		return
	}
	if err := s.store.Flush(); err != nil {
		s.stats.RecordPersistFailure(err)
	}
}

// NextRun returns when the next tick is due, or the zero time if the
// scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
