package scheduler

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks scheduler counters.
type Stats struct {
	ticks               atomic.Int64
	expiries            atomic.Int64
	gaps                atomic.Int64
	dispatchFailures    atomic.Int64
	persistFailures     atomic.Int64
	notificationsSent   atomic.Int64
	notificationsFailed atomic.Int64

	mu           sync.RWMutex
	startedAt    time.Time
	lastExpiryAt time.Time
	lastError    string
	lastErrorAt  time.Time
}

// NewStats creates a zeroed tracker.
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

// StatsSnapshot is a point-in-time view of Stats.
type StatsSnapshot struct {
	StartedAt           time.Time  `json:"started_at"`
	Ticks               int64      `json:"ticks_total"`
	Expiries            int64      `json:"expiries_total"`
	Gaps                int64      `json:"gaps_total"`
	DispatchFailures    int64      `json:"dispatch_failures_total"`
	PersistFailures     int64      `json:"persist_failures_total"`
	NotificationsSent   int64      `json:"notifications_sent_total"`
	NotificationsFailed int64      `json:"notifications_failed_total"`
	LastExpiryAt        *time.Time `json:"last_expiry_at,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	LastErrorAt         *time.Time `json:"last_error_at,omitempty"`
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatsSnapshot{
		StartedAt:           s.startedAt,
		Ticks:               s.ticks.Load(),
		Expiries:            s.expiries.Load(),
		Gaps:                s.gaps.Load(),
		DispatchFailures:    s.dispatchFailures.Load(),
		PersistFailures:     s.persistFailures.Load(),
		NotificationsSent:   s.notificationsSent.Load(),
		NotificationsFailed: s.notificationsFailed.Load(),
		LastError:           s.lastError,
	}
	if !s.lastExpiryAt.IsZero() {
		t := s.lastExpiryAt
		snap.LastExpiryAt = &t
	}
	if !s.lastErrorAt.IsZero() {
		t := s.lastErrorAt
		snap.LastErrorAt = &t
	}
	return snap
}

// JSON returns the snapshot as indented JSON.
func (s *Stats) JSON() ([]byte, error) {
	return json.MarshalIndent(s.Snapshot(), "", "  ")
}

// RecordTick counts one tick and the entries that expired in it.
func (s *Stats) RecordTick(expired int) {
	s.ticks.Add(1)
	if expired == 0 {
		return
	}
	s.expiries.Add(int64(expired))
	s.mu.Lock()
	s.lastExpiryAt = time.Now()
	s.mu.Unlock()
}

// RecordGap counts a late tick.
func (s *Stats) RecordGap() {
	s.gaps.Add(1)
}

// RecordDispatchFailure counts an action that could not be launched.
func (s *Stats) RecordDispatchFailure(err error) {
	s.dispatchFailures.Add(1)
	s.recordError(err)
}

// RecordPersistFailure counts a failed save.
func (s *Stats) RecordPersistFailure(err error) {
	s.persistFailures.Add(1)
	s.recordError(err)
}

// RecordNotification counts a webhook delivery attempt.
func (s *Stats) RecordNotification(err error) {
	if err == nil {
		s.notificationsSent.Add(1)
		return
	}
	s.notificationsFailed.Add(1)
	s.recordError(err)
}

func (s *Stats) recordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err.Error()
	s.lastErrorAt = time.Now()
}

// Ticks returns the number of ticks run.
func (s *Stats) Ticks() int64 {
	return s.ticks.Load()
}

// Expiries returns the number of entries that expired.
func (s *Stats) Expiries() int64 {
	return s.expiries.Load()
}

// DispatchFailures returns the number of failed action launches.
func (s *Stats) DispatchFailures() int64 {
	return s.dispatchFailures.Load()
}

// PersistFailures returns the number of failed saves.
func (s *Stats) PersistFailures() int64 {
	return s.persistFailures.Load()
}

// NotificationsFailed returns the number of failed webhook deliveries.
func (s *Stats) NotificationsFailed() int64 {
	return s.notificationsFailed.Load()
}
