package output

import (
	"time"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// TimerOutput represents a timer in JSON output.
type TimerOutput struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Kind             string `json:"kind"`
	State            string `json:"state"`
	Active           bool   `json:"active"`
	Dismissed        bool   `json:"dismissed,omitempty"`
	DurationSeconds  int64  `json:"duration_seconds,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	TriggerAt        string `json:"trigger_at,omitempty"`
	ActionPath       string `json:"action_path,omitempty"`
}

// NewTimerOutput creates a TimerOutput from an entry.
func NewTimerOutput(e model.TimerEntry, now time.Time) *TimerOutput {
	out := &TimerOutput{
		ID:               e.ID,
		Name:             e.Name,
		Kind:             string(e.Kind),
		State:            State(e),
		Active:           e.Active,
		Dismissed:        e.Dismissed,
		RemainingSeconds: e.RemainingAt(now),
		ActionPath:       e.ActionPath,
	}
	if e.IsAlarm() {
		out.TriggerAt = e.TriggerAt.Format(time.RFC3339)
	} else {
		out.DurationSeconds = e.Duration
	}
	return out
}

// TimersResponse represents the timer list output in JSON.
type TimersResponse struct {
	Timers      []*TimerOutput `json:"timers"`
	TotalCount  int            `json:"total_count"`
	ActiveCount int            `json:"active_count"`
}

// NewTimersResponse creates a TimersResponse from entries.
func NewTimersResponse(entries []model.TimerEntry, now time.Time) *TimersResponse {
	resp := &TimersResponse{
		Timers:     make([]*TimerOutput, len(entries)),
		TotalCount: len(entries),
	}
	for i, e := range entries {
		resp.Timers[i] = NewTimerOutput(e, now)
		if e.Active {
			resp.ActiveCount++
		}
	}
	return resp
}

// TimerResponse represents a single-timer command result in JSON.
type TimerResponse struct {
	Status string       `json:"status"`
	Timer  *TimerOutput `json:"timer"`
}

// BatchResponse reports a command that touched several timers.
type BatchResponse struct {
	Status  string         `json:"status"`
	Changed int            `json:"changed"`
	Timers  []*TimerOutput `json:"timers"`
}

// FiredOutput represents a history record in JSON.
type FiredOutput struct {
	TimerID       string `json:"timer_id"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	ActionPath    string `json:"action_path,omitempty"`
	FiredAt       string `json:"fired_at"`
	DispatchError string `json:"dispatch_error,omitempty"`
}

// HistoryResponse represents the history output in JSON.
type HistoryResponse struct {
	Records    []*FiredOutput `json:"records"`
	ShownCount int            `json:"shown_count"`
	TotalCount int            `json:"total_count"`
}

// NewHistoryResponse creates a HistoryResponse from records.
func NewHistoryResponse(records []*model.FiredRecord, total int) *HistoryResponse {
	out := make([]*FiredOutput, len(records))
	for i, r := range records {
		out[i] = &FiredOutput{
			TimerID:       r.TimerID,
			Name:          r.Name,
			Kind:          string(r.Kind),
			ActionPath:    r.ActionPath,
			FiredAt:       r.FiredAt.Format(time.RFC3339),
			DispatchError: r.DispatchError,
		}
	}
	return &HistoryResponse{Records: out, ShownCount: len(records), TotalCount: total}
}

// StatusResponse represents the status output in JSON.
type StatusResponse struct {
	Status      string       `json:"status"`
	PID         int          `json:"pid,omitempty"`
	TotalCount  int          `json:"total_count"`
	ActiveCount int          `json:"active_count"`
	Next        *TimerOutput `json:"next,omitempty"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PrintTimers outputs the timer list in JSON format.
func (j *JSONFormatter) PrintTimers(entries []model.TimerEntry, now time.Time) error {
	return j.JSON(NewTimersResponse(entries, now))
}

// PrintTimer outputs a single timer with a status word such as "added".
func (j *JSONFormatter) PrintTimer(status string, e model.TimerEntry, now time.Time) error {
	return j.JSON(TimerResponse{Status: status, Timer: NewTimerOutput(e, now)})
}

// PrintBatch outputs the timers a start, stop or remove touched.
func (j *JSONFormatter) PrintBatch(status string, entries []model.TimerEntry, changed int, now time.Time) error {
	resp := BatchResponse{Status: status, Changed: changed, Timers: make([]*TimerOutput, len(entries))}
	for i, e := range entries {
		resp.Timers[i] = NewTimerOutput(e, now)
	}
	return j.JSON(resp)
}

// PrintHistory outputs history records in JSON format.
func (j *JSONFormatter) PrintHistory(records []*model.FiredRecord, total int) error {
	return j.JSON(NewHistoryResponse(records, total))
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(status, errMsg, message string) error {
	resp := ErrorResponse{
		Status:  status,
		Error:   errMsg,
		Message: message,
	}
	return j.JSON(resp)
}
