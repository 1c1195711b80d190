package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/errors"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		valid    bool
	}{
		// Standard Go duration formats
		{"go_duration_hours", "2h", 2 * time.Hour, true},
		{"go_duration_minutes", "30m", 30 * time.Minute, true},
		{"go_duration_seconds", "45s", 45 * time.Second, true},
		{"go_duration_combined", "1h30m", 90 * time.Minute, true},
		{"go_duration_complex", "2h30m15s", 2*time.Hour + 30*time.Minute + 15*time.Second, true},
		{"decimal_hours", "2.5h", 150 * time.Minute, true},

		// Clock formats
		{"clock_hms", "01:30:00", 90 * time.Minute, true},
		{"clock_hms_short", "0:00:05", 5 * time.Second, true},
		{"clock_ms", "25:00", 25 * time.Minute, true},
		{"clock_ms_seconds", "1:30", 90 * time.Second, true},
		{"clock_large_hours", "99:59:59", 99*time.Hour + 59*time.Minute + 59*time.Second, true},
		{"clock_bad_minutes", "1:75:00", 0, false},
		{"clock_bad_seconds", "10:60", 0, false},
		{"clock_zero", "00:00:00", 0, false},

		// Natural language
		{"hours_hr", "2hr", 2 * time.Hour, true},
		{"hours_word", "2 hours", 2 * time.Hour, true},
		{"minutes_min", "30min", 30 * time.Minute, true},
		{"minutes_mins", "30mins", 30 * time.Minute, true},
		{"minutes_word", "90 minutes", 90 * time.Minute, true},
		{"seconds_sec", "45sec", 45 * time.Second, true},
		{"seconds_word", "45 seconds", 45 * time.Second, true},
		{"spaced_parts", "1h 30m", 90 * time.Minute, true},
		{"words_parts", "1 hour 30 minutes", 90 * time.Minute, true},
		{"words_and", "1 hour and 30 minutes", 90 * time.Minute, true},
		{"comma_parts", "1 hour, 5 seconds", time.Hour + 5*time.Second, true},
		{"upper_case", "5 MINUTES", 5 * time.Minute, true},

		// Bare numbers are minutes
		{"number_only", "15", 15 * time.Minute, true},
		{"decimal_number", "1.5", 90 * time.Second, true},

		// Invalid
		{"empty_string", "", 0, false},
		{"whitespace_only", "   ", 0, false},
		{"invalid_format", "abc", 0, false},
		{"zero", "0", 0, false},
		{"negative", "-5m", 0, false},
		{"time_of_day", "7am", 0, false},
		{"trailing_garbage", "5 minutes please", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseDuration(tt.input)
			assert.Equal(t, tt.valid, result.Valid, "input %q", tt.input)
			if tt.valid {
				assert.Equal(t, tt.expected, result.Duration)
			}
		})
	}
}

func TestParseSeconds(t *testing.T) {
	secs, err := ParseSeconds("5m")
	require.NoError(t, err)
	assert.Equal(t, int64(300), secs)

	secs, err = ParseSeconds("1.6s")
	require.NoError(t, err)
	assert.Equal(t, int64(2), secs, "rounded to the nearest second")

	_, err = ParseSeconds("200ms")
	assert.ErrorIs(t, err, errors.ErrInvalidDuration)

	_, err = ParseSeconds("soon")
	var perr *TimeParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "soon", perr.Input)
}

func TestIsDurationLike(t *testing.T) {
	assert.True(t, IsDurationLike("5m"))
	assert.True(t, IsDurationLike("00:10:00"))
	assert.True(t, IsDurationLike("10"))
	assert.False(t, IsDurationLike("7am"))
	assert.False(t, IsDurationLike("tomorrow"))
	assert.False(t, IsDurationLike(""))
}
