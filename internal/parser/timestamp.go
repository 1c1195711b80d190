package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// TimestampResult holds the parsed timestamp and any error.
type TimestampResult struct {
	Time  time.Time
	Error error
}

// relativeRegex matches relative time expressions like "+5m", "+1h", "+2d".
var relativeRegex = regexp.MustCompile(`^\+(\d+)([smhdw])$`)

// ParseAlarmTime parses when an alarm should go off, relative to now.
// Supports formats like:
//   - "+5m", "+1h", "+2d" (relative)
//   - "in 90 minutes", "in 1h30m"
//   - "7am", "18:30", "tomorrow 7am", "friday 5pm" (natural language)
//   - "2026-01-15 14:00" (ISO format)
//
// Ambiguous dates resolve to the future, and a bare time of day that has
// already passed today means tomorrow. The result has whole-second precision.
func ParseAlarmTime(input string, now time.Time) TimestampResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return TimestampResult{Error: NewAlarmTimeError(input)}
	}

	if match := relativeRegex.FindStringSubmatch(input); match != nil {
		return parseRelative(match[1], match[2], now)
	}

	lower := strings.ToLower(input)
	if rest, ok := strings.CutPrefix(lower, "in "); ok {
		if r := ParseDuration(rest); r.Valid {
			return TimestampResult{Time: now.Add(r.Duration).Truncate(time.Second)}
		}
	}

	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		PreferredDateSource: dateparser.Future,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return TimestampResult{Error: NewAlarmTimeError(input)}
	}

	t := result.Time
	if !t.After(now) && isSameDay(t, now) {
		t = t.AddDate(0, 0, 1)
	}
	if !t.After(now) {
		perr := NewAlarmTimeError(input)
		perr.Message = "time is in the past"
		return TimestampResult{Error: perr}
	}
	return TimestampResult{Time: t.Truncate(time.Second)}
}

func parseRelative(numStr, unit string, now time.Time) TimestampResult {
	num, _ := strconv.Atoi(numStr)
	if num <= 0 {
		return TimestampResult{Error: NewAlarmTimeError("+" + numStr + unit)}
	}

	var d time.Duration
	switch unit {
	case "s":
		d = time.Duration(num) * time.Second
	case "m":
		d = time.Duration(num) * time.Minute
	case "h":
		d = time.Duration(num) * time.Hour
	case "d":
		d = time.Duration(num) * 24 * time.Hour
	case "w":
		d = time.Duration(num) * 7 * 24 * time.Hour
	}
	return TimestampResult{Time: now.Add(d).Truncate(time.Second)}
}

// isSameDay checks if two times are on the same day.
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// FormatAlarmTime formats an alarm time for display relative to now.
func FormatAlarmTime(t, now time.Time) string {
	var datePart string
	switch {
	case isSameDay(t, now):
		datePart = "Today"
	case isSameDay(t, now.AddDate(0, 0, 1)):
		datePart = "Tomorrow"
	case isSameDay(t, now.AddDate(0, 0, -1)):
		datePart = "Yesterday"
	case t.Sub(now) > 0 && t.Sub(now) < 7*24*time.Hour:
		datePart = t.Format("Monday")
	default:
		datePart = t.Format("Mon, Jan 2")
	}
	return fmt.Sprintf("%s at %s", datePart, t.Format("3:04 PM"))
}

// FormatTimeUntil describes how long until t.
func FormatTimeUntil(t, now time.Time) string {
	diff := t.Sub(now)
	if diff <= 0 {
		return "due"
	}

	if diff < time.Minute {
		return "less than a minute"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "in 1 minute"
		}
		return fmt.Sprintf("in %d minutes", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		mins := int(diff.Minutes()) % 60
		if hours == 1 {
			if mins > 0 {
				return fmt.Sprintf("in 1 hour %d minutes", mins)
			}
			return "in 1 hour"
		}
		if mins > 0 {
			return fmt.Sprintf("in %d hours %d minutes", hours, mins)
		}
		return fmt.Sprintf("in %d hours", hours)
	}

	days := int(diff.Hours() / 24)
	if days == 1 {
		return "in 1 day"
	}
	return fmt.Sprintf("in %d days", days)
}
