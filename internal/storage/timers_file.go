package storage

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// timerRecord is the on-disk shape of a timer. Times are epoch seconds.
//
// Files written before the kind field existed carry isAlarm instead, and
// store an alarm's epoch trigger time in durationSeconds.
type timerRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Kind            string `json:"kind,omitempty"`
	IsAlarm         *bool  `json:"isAlarm,omitempty"`
	DurationSeconds int64  `json:"durationSeconds,omitempty"`
	Remaining       *int64 `json:"remaining,omitempty"`
	TriggerAt       int64  `json:"triggerAt,omitempty"`
	IsActive        bool   `json:"isActive"`
	Dismissed       bool   `json:"dismissed,omitempty"`
	ActionPath      string `json:"actionPath"`
}

func toRecord(e model.TimerEntry) timerRecord {
	rec := timerRecord{
		ID:         e.ID,
		Name:       e.Name,
		Kind:       string(e.Kind),
		IsActive:   e.Active,
		ActionPath: e.ActionPath,
	}
	if e.IsAlarm() {
		rec.TriggerAt = e.TriggerAt.Unix()
		rec.Dismissed = e.Dismissed
		return rec
	}
	remaining := e.Remaining
	rec.DurationSeconds = e.Duration
	rec.Remaining = &remaining
	return rec
}

// fromRecord validates a record and converts it to an entry.
func fromRecord(rec timerRecord, now time.Time) (model.TimerEntry, error) {
	e := model.TimerEntry{
		ID:         rec.ID,
		Name:       strings.TrimSpace(rec.Name),
		Active:     rec.IsActive,
		ActionPath: rec.ActionPath,
	}
	if e.Name == "" {
		return e, fmt.Errorf("record %q: empty name", rec.ID)
	}

	legacy := rec.Kind == ""
	switch {
	case legacy && rec.IsAlarm != nil && *rec.IsAlarm:
		e.Kind = model.KindAlarm
		if rec.TriggerAt == 0 {
			rec.TriggerAt = rec.DurationSeconds
		}
	case legacy:
		e.Kind = model.KindCountdown
	default:
		kind, err := model.ParseKind(rec.Kind)
		if err != nil {
			return e, fmt.Errorf("record %q: %w", e.Name, err)
		}
		e.Kind = kind
	}

	if e.IsAlarm() {
		if rec.TriggerAt <= 0 {
			return e, fmt.Errorf("record %q: alarm without trigger time", e.Name)
		}
		e.TriggerAt = time.Unix(rec.TriggerAt, 0)
		e.Dismissed = rec.Dismissed
		// Legacy files cannot say whether a past alarm already fired.
		if legacy && !e.Active && e.Due(now) {
			e.Dismissed = true
		}
		return e, nil
	}

	if rec.DurationSeconds <= 0 {
		return e, fmt.Errorf("record %q: non-positive duration %d", e.Name, rec.DurationSeconds)
	}
	e.Duration = rec.DurationSeconds
	e.Remaining = e.Duration
	if rec.Remaining != nil {
		e.Remaining = min(max(*rec.Remaining, 0), e.Duration)
	}
	return e, nil
}

// reconcile fixes state that survived a shutdown: an active countdown that
// already ran out is stopped rather than fired retroactively.
func reconcile(e *model.TimerEntry) bool {
	if e.IsCountdown() && e.Active && e.Remaining <= 0 {
		e.Active = false
		e.Remaining = 0
		return true
	}
	return false
}

// TimersFile is the durable home of the timer store: a JSON array of
// records, replaced atomically on every save.
type TimersFile struct {
	fs    afero.Fs
	path  string
	clock clock.Clock
}

// NewTimersFile creates a gateway for the file at path on fs.
func NewTimersFile(fs afero.Fs, path string) *TimersFile {
	return &TimersFile{fs: fs, path: path, clock: clock.System}
}

// WithClock sets the clock used to judge legacy alarms at load time.
func (f *TimersFile) WithClock(c clock.Clock) *TimersFile {
	f.clock = c
	return f
}

// Path returns the file location.
func (f *TimersFile) Path() string {
	return f.path
}

// Save writes all entries, replacing the previous file.
func (f *TimersFile) Save(entries []model.TimerEntry) error {
	start := time.Now()

	records := make([]timerRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, toRecord(e))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.NewPersistenceError("save", f.path, err)
	}

	if err := EnsureDirectory(f.fs, filepath.Dir(f.path)); err != nil {
		return errors.NewPersistenceError("save", f.path, err)
	}
	if err := SafeWrite(f.fs, f.path, data, 0600); err != nil {
		return errors.NewPersistenceError("save", f.path, err)
	}

	logging.LogOperation("save",
		logging.KeyPath, f.path,
		logging.KeyCount, len(entries),
		logging.KeyDuration, time.Since(start).Milliseconds())
	return nil
}

// Load reads the file. A missing file is a first run and yields no entries.
// A malformed file yields no entries and a *errors.PersistenceError; the
// file is copied aside first. Invalid records are skipped and reported the
// same way while the rest load. A name already used by an earlier record
// gets a numbered suffix so no timer is lost.
func (f *TimersFile) Load() ([]model.TimerEntry, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return []model.TimerEntry{}, nil
		}
		return []model.TimerEntry{}, errors.NewPersistenceError("load", f.path, err)
	}

	var records []timerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		if _, qerr := QuarantineFile(f.fs, f.path, f.clock.Now()); qerr != nil {
			logging.Warn("could not preserve unreadable timers file", logging.KeyError, qerr)
		}
		return []model.TimerEntry{}, errors.NewPersistenceError("load", f.path,
			fmt.Errorf("%w: %v", errors.ErrCorruptFile, err))
	}

	now := f.clock.Now()
	entries := make([]model.TimerEntry, 0, len(records))
	ids := make(map[string]bool, len(records))
	names := make(map[string]bool, len(records))
	taken := make(map[string]bool, len(records))
	for _, rec := range records {
		taken[strings.TrimSpace(rec.Name)] = true
	}
	var problems []error

	for _, rec := range records {
		e, err := fromRecord(rec, now)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if e.ID == "" || ids[e.ID] {
			e.ID = uuid.NewString()
		}
		if names[e.Name] {
			renamed := uniqueName(e.Name, taken)
			logging.Warn("renamed timer with duplicate name",
				logging.KeyTimerID, e.ID,
				logging.KeyTimerName, e.Name,
				"renamed", renamed)
			e.Name = renamed
		}
		if reconcile(&e) {
			logging.Info("stopped countdown that ran out while not running",
				logging.KeyTimerID, e.ID, logging.KeyTimerName, e.Name)
		}
		ids[e.ID] = true
		names[e.Name] = true
		entries = append(entries, e)
	}

	if len(problems) > 0 {
		return entries, errors.NewPersistenceError("load", f.path,
			fmt.Errorf("%w: %w", errors.ErrCorruptFile, stderrors.Join(problems...)))
	}
	return entries, nil
}

// uniqueName returns "name (N)" for the smallest N >= 2 not in taken, and
// marks it taken.
func uniqueName(name string, taken map[string]bool) string {
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}
