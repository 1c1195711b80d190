package model

import (
	"fmt"
	"time"
)

// PrefixFired namespaces history keys.
const PrefixFired = "fired"

// FiredRecord is one history entry, written every time a timer expires.
type FiredRecord struct {
	Key           string    `json:"key"`
	TimerID       string    `json:"timer_id"`
	Name          string    `json:"name"`
	Kind          Kind      `json:"kind"`
	ActionPath    string    `json:"action_path,omitempty"`
	FiredAt       time.Time `json:"fired_at"`
	DispatchError string    `json:"dispatch_error,omitempty"`
}

// SetKey sets the database key for this record.
func (r *FiredRecord) SetKey(key string) {
	r.Key = key
}

// GetKey returns the database key for this record.
func (r *FiredRecord) GetKey() string {
	return r.Key
}

// Failed reports whether the expiry action could not be launched.
func (r *FiredRecord) Failed() bool {
	return r.DispatchError != ""
}

// GenerateFiredKey builds a key that sorts chronologically: the fired-at
// time is zero-padded nanoseconds, the uuid breaks ties.
func GenerateFiredKey(firedAt time.Time, uuid string) string {
	return fmt.Sprintf("%s:%020d:%s", PrefixFired, firedAt.UnixNano(), uuid)
}

// NewFiredRecord creates a history record for an expired entry.
func NewFiredRecord(entry TimerEntry, firedAt time.Time) *FiredRecord {
	return &FiredRecord{
		TimerID:    entry.ID,
		Name:       entry.Name,
		Kind:       entry.Kind,
		ActionPath: entry.ActionPath,
		FiredAt:    firedAt,
	}
}
