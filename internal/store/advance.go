package store

import (
	"time"

	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// AdvanceResult describes one tick.
type AdvanceResult struct {
	// Expired holds the entries that ran out this tick, as they were at
	// expiry (inactive). Countdowns among them are no longer in the store.
	Expired []model.TimerEntry
	// Armed counts alarms switched on by the activation pass.
	Armed int
	// Ticked counts tick events emitted.
	Ticked int
	// Changed reports whether the collection was persisted and list-changed published.
	Changed bool
	// PersistErr is the save failure, if any. It is also published on the bus.
	PersistErr error
}

// Advance runs one tick at now:
//
//  1. inactive alarms that are due and not dismissed become active;
//  2. active countdowns lose one second and active alarms recompute their
//     remaining time, each emitting a tick; anything at zero has expired;
//  3. expired entries are deactivated and reported; countdowns are removed,
//     alarms are kept as dismissed;
//  4. if anything changed the collection is saved once and one list-changed
//     is published.
//
// The whole pass holds the store lock. Its events are delivered in commit
// order relative to concurrent commands.
func (s *Store) Advance(now time.Time) AdvanceResult {
	var res AdvanceResult
	var evs []events.Event

	s.mu.Lock()

	for i := range s.entries {
		e := &s.entries[i]
		if e.IsAlarm() && !e.Active && !e.Dismissed && e.Due(now) {
			e.Active = true
			res.Armed++
		}
	}

	var expired []int
	for i := range s.entries {
		e := &s.entries[i]
		if !e.Active {
			continue
		}
		var remaining int64
		if e.IsCountdown() {
			e.Remaining = max(e.Remaining-1, 0)
			remaining = e.Remaining
		} else {
			remaining = e.RemainingAt(now)
		}
		evs = append(evs, events.Tick(e.ID, remaining))
		res.Ticked++
		if remaining <= 0 {
			expired = append(expired, i)
		}
	}

	for _, i := range expired {
		e := &s.entries[i]
		e.Active = false
		if e.IsAlarm() {
			e.Dismissed = true
		}
		res.Expired = append(res.Expired, *e)
		evs = append(evs, events.Expired(e.ID, e.Name, e.ActionPath))
	}
	if len(expired) > 0 {
		kept := s.entries[:0]
		for _, e := range s.entries {
			if e.IsCountdown() && isExpired(res.Expired, e.ID) {
				continue
			}
			kept = append(kept, e)
		}
		s.entries = kept
	}

	res.Changed = res.Armed > 0 || len(expired) > 0
	if res.Changed {
		commit := s.commitLocked("tick")
		if len(commit) > 1 {
			res.PersistErr = commit[1].Err
		}
		evs = append(evs, commit...)
	}
	s.queueLocked(evs...)

	s.mu.Unlock()

	for _, e := range res.Expired {
		logging.Info("timer expired",
			logging.KeyTimerID, e.ID,
			logging.KeyTimerName, e.Name,
			logging.KeyKind, e.Kind)
	}
	s.deliver()
	return res
}

func isExpired(expired []model.TimerEntry, id string) bool {
	for _, e := range expired {
		if e.ID == id {
			return true
		}
	}
	return false
}
