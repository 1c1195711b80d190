// Package model holds the tickwatch domain types.
package model

import (
	"fmt"
	"time"
)

// Kind distinguishes the two timer variants.
type Kind string

// Timer kinds.
const (
	KindCountdown Kind = "countdown"
	KindAlarm     Kind = "alarm"
)

// ParseKind converts a persisted or user-supplied kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCountdown, KindAlarm:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown timer kind %q", s)
	}
}

// Target is the kind-specific payload used to create or edit a timer.
// Exactly one of Duration (countdown) or TriggerAt (alarm) is meaningful.
type Target struct {
	Kind      Kind
	Duration  int64 // seconds
	TriggerAt time.Time
}

// CountdownTarget builds a countdown target of the given length in seconds.
func CountdownTarget(seconds int64) Target {
	return Target{Kind: KindCountdown, Duration: seconds}
}

// AlarmTarget builds an alarm target. The time is truncated to whole seconds,
// matching the precision of the timers file.
func AlarmTarget(at time.Time) Target {
	return Target{Kind: KindAlarm, TriggerAt: at.Truncate(time.Second)}
}

// Equal reports whether two targets describe the same schedule.
func (t Target) Equal(o Target) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == KindAlarm {
		return t.TriggerAt.Equal(o.TriggerAt)
	}
	return t.Duration == o.Duration
}

// TimerEntry is a countdown or an alarm.
//
// Countdowns use Duration and Remaining. Alarms use TriggerAt; their remaining
// time is derived from the clock and never stored. Dismissed marks an alarm
// whose one-shot has fired or was stopped by hand, so it is not re-armed
// automatically.
type TimerEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       Kind      `json:"kind"`
	Duration   int64     `json:"duration_seconds,omitempty"`
	Remaining  int64     `json:"remaining,omitempty"`
	TriggerAt  time.Time `json:"trigger_at,omitempty"`
	Active     bool      `json:"active"`
	Dismissed  bool      `json:"dismissed,omitempty"`
	ActionPath string    `json:"action_path,omitempty"`
}

// IsAlarm returns true for alarm entries.
func (e TimerEntry) IsAlarm() bool {
	return e.Kind == KindAlarm
}

// IsCountdown returns true for countdown entries.
func (e TimerEntry) IsCountdown() bool {
	return e.Kind == KindCountdown
}

// Target returns the entry's schedule.
func (e TimerEntry) Target() Target {
	if e.IsAlarm() {
		return Target{Kind: KindAlarm, TriggerAt: e.TriggerAt}
	}
	return Target{Kind: KindCountdown, Duration: e.Duration}
}

// RemainingAt returns the seconds left at now, never negative.
// Partial seconds before an alarm's trigger count as a full second so an
// alarm never fires early.
func (e TimerEntry) RemainingAt(now time.Time) int64 {
	if e.IsCountdown() {
		return max(e.Remaining, 0)
	}
	d := e.TriggerAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

// Due reports whether an alarm's trigger time has been reached.
func (e TimerEntry) Due(now time.Time) bool {
	return e.IsAlarm() && !e.TriggerAt.After(now)
}

// Reset reinitialises run state for target as on creation.
func (e *TimerEntry) Reset(target Target, now time.Time) {
	e.Kind = target.Kind
	e.Dismissed = false
	switch target.Kind {
	case KindAlarm:
		e.Duration = 0
		e.Remaining = 0
		e.TriggerAt = target.TriggerAt
		e.Active = target.TriggerAt.After(now)
	default:
		e.Duration = target.Duration
		e.Remaining = target.Duration
		e.TriggerAt = time.Time{}
		e.Active = false
	}
}
