package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// Run with: go test ./internal/parser -fuzz=FuzzParseSeconds -fuzztime=30s
func FuzzParseSeconds(f *testing.F) {
	for _, seed := range []string{
		"1h", "30m", "1h30m", "90", "45s", "25:00", "01:30:00",
		"1 hour", "30 minutes", "2 hours 30 minutes", "0", "-5m", "",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		secs, err := ParseSeconds(input)
		if err == nil && secs <= 0 {
			t.Fatalf("ParseSeconds(%q) = %d with no error", input, secs)
		}
	})
}

// Run with: go test ./internal/parser -fuzz=FuzzParseTarget -fuzztime=30s
func FuzzParseTarget(f *testing.F) {
	for _, seed := range []string{
		"5m", "at 18:30", "@7am", "tomorrow 9:30am", "in 20 minutes",
		"2026-01-15 14:30", "at", "@", "banana",
	} {
		f.Add(seed)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f.Fuzz(func(t *testing.T, input string) {
		target, err := ParseTarget(input, now)
		if err != nil {
			return
		}
		switch target.Kind {
		case model.KindCountdown:
			if target.Duration <= 0 {
				t.Fatalf("ParseTarget(%q) gave countdown of %d seconds", input, target.Duration)
			}
		case model.KindAlarm:
			if target.TriggerAt.IsZero() {
				t.Fatalf("ParseTarget(%q) gave alarm with no time", input)
			}
		default:
			t.Fatalf("ParseTarget(%q) gave kind %q", input, target.Kind)
		}
	})
}

func FuzzSplitNameAndTarget(f *testing.F) {
	for _, seed := range []string{"tea, 5m", "a,b,c", ",", "no comma", " , 5m"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		name, schedule, ok := SplitNameAndTarget(input)
		if !ok {
			return
		}
		if name == "" || schedule == "" || strings.Contains(schedule, ",") {
			t.Fatalf("SplitNameAndTarget(%q) = %q, %q", input, name, schedule)
		}
	})
}
