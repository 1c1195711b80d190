package storage

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// HistoryRepo records fired timers.
type HistoryRepo struct {
	db        *DB
	retention time.Duration
}

// NewHistoryRepo creates a new history repository.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// WithRetention makes records expire once they are older than d. Zero keeps
// them until Clear.
func (r *HistoryRepo) WithRetention(d time.Duration) *HistoryRepo {
	r.retention = d
	return r
}

var firedPrefix = model.PrefixFired + ":"

// Append stores a fired record, assigning its key from FiredAt.
func (r *HistoryRepo) Append(rec *model.FiredRecord) error {
	if rec.FiredAt.IsZero() {
		rec.FiredAt = time.Now()
	}
	rec.SetKey(model.GenerateFiredKey(rec.FiredAt, uuid.NewString()))
	return r.db.put(rec, r.retention)
}

// List returns up to limit records, newest first. A limit of 0 returns all.
func (r *HistoryRepo) List(limit int) ([]*model.FiredRecord, error) {
	return scan(r.db, firedPrefix, true, limit, func() *model.FiredRecord { return &model.FiredRecord{} })
}

// Count returns the number of stored records.
func (r *HistoryRepo) Count() (int, error) {
	return r.db.count(firedPrefix)
}

// Clear removes all records and returns how many were deleted.
func (r *HistoryRepo) Clear() (int, error) {
	return r.db.drop(firedPrefix)
}

// TimerAggregate summarizes the history of one timer name.
type TimerAggregate struct {
	Name      string
	Kind      model.Kind
	Fired     int
	Failed    int
	LastFired time.Time
}

// AggregateByName groups records fired at or after since by timer name,
// most fired first. A zero since includes everything.
func AggregateByName(records []*model.FiredRecord, since time.Time) []TimerAggregate {
	agg := make(map[string]*TimerAggregate)

	for _, r := range records {
		if r.FiredAt.Before(since) {
			continue
		}
		a, ok := agg[r.Name]
		if !ok {
			a = &TimerAggregate{Name: r.Name, Kind: r.Kind}
			agg[r.Name] = a
		}
		a.Fired++
		if r.Failed() {
			a.Failed++
		}
		if r.FiredAt.After(a.LastFired) {
			a.LastFired = r.FiredAt
		}
	}

	result := make([]TimerAggregate, 0, len(agg))
	for _, a := range agg {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Fired != result[j].Fired {
			return result[i].Fired > result[j].Fired
		}
		return result[i].Name < result[j].Name
	})
	return result
}
