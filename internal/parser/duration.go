// Package parser turns user input into countdown lengths and alarm times.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DurationResult represents the result of parsing a duration.
type DurationResult struct {
	Duration time.Duration
	Valid    bool
}

// clockPattern matches "HH:MM:SS" and "MM:SS".
var clockPattern = regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}))?$`)

// partPattern matches one "<number> <unit>" term at the start of the input.
// Longer unit spellings come first so "30min" is not read as "30m" + "in".
var partPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(hours|hour|hrs|hr|h|minutes|minute|mins|min|m|seconds|second|secs|sec|s)(?:\s*and\s+|,\s*|\s+|$)`)

// ParseDuration parses a countdown length.
// Supports formats like:
//   - "1h30m", "90s" (Go syntax)
//   - "01:30:00", "25:00" (HH:MM:SS, MM:SS)
//   - "90 minutes", "1 hour 30 minutes", "1h 30m", "2.5h"
//   - "15" (bare number of minutes)
func ParseDuration(input string) DurationResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return DurationResult{}
	}

	var d time.Duration
	switch {
	case clockPattern.MatchString(input):
		var ok bool
		if d, ok = parseClock(input); !ok {
			return DurationResult{}
		}
	default:
		if parsed, err := time.ParseDuration(input); err == nil {
			d = parsed
		} else if n, err := strconv.ParseFloat(input, 64); err == nil {
			d = time.Duration(n * float64(time.Minute))
		} else if parsed, ok := parseParts(input); ok {
			d = parsed
		} else {
			return DurationResult{}
		}
	}

	if d <= 0 {
		return DurationResult{}
	}
	return DurationResult{Duration: d, Valid: true}
}

func parseClock(input string) (time.Duration, bool) {
	m := clockPattern.FindStringSubmatch(input)
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	if b >= 60 {
		return 0, false
	}
	if m[3] == "" {
		return time.Duration(a)*time.Minute + time.Duration(b)*time.Second, true
	}
	c, _ := strconv.Atoi(m[3])
	if c >= 60 {
		return 0, false
	}
	return time.Duration(a)*time.Hour + time.Duration(b)*time.Minute + time.Duration(c)*time.Second, true
}

func parseParts(input string) (time.Duration, bool) {
	var total time.Duration
	rest := input
	for rest != "" {
		m := partPattern.FindStringSubmatch(rest)
		if m == nil {
			return 0, false
		}
		value, _ := strconv.ParseFloat(m[1], 64)
		total += unitToDuration(value, strings.ToLower(m[2]))
		rest = rest[len(m[0]):]
	}
	return total, true
}

// unitToDuration converts a value and unit to a duration.
func unitToDuration(value float64, unit string) time.Duration {
	switch unit {
	case "h", "hr", "hrs", "hour", "hours":
		return time.Duration(value * float64(time.Hour))
	case "s", "sec", "secs", "second", "seconds":
		return time.Duration(value * float64(time.Second))
	default:
		return time.Duration(value * float64(time.Minute))
	}
}

// ParseSeconds parses a countdown length into whole seconds, rounding to the
// nearest second.
func ParseSeconds(input string) (int64, error) {
	r := ParseDuration(input)
	if !r.Valid {
		return 0, NewDurationError(input)
	}
	secs := int64(r.Duration.Round(time.Second) / time.Second)
	if secs <= 0 {
		err := NewDurationError(input)
		err.Message = "countdowns must be at least one second"
		return 0, err
	}
	return secs, nil
}

// IsDurationLike checks if a string reads as a countdown length rather than
// a time of day.
func IsDurationLike(s string) bool {
	return ParseDuration(s).Valid
}
