package parser

import (
	"strings"
	"time"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// ParseTarget reads a schedule typed as free text: "at TIME" or "@TIME" is
// an alarm, anything that parses as a duration is a countdown, and
// everything else is tried as an alarm time.
func ParseTarget(input string, now time.Time) (model.Target, error) {
	input = strings.TrimSpace(input)
	lower := strings.ToLower(input)

	for _, prefix := range []string{"at ", "@"} {
		if strings.HasPrefix(lower, prefix) {
			return alarmTarget(strings.TrimSpace(input[len(prefix):]), now)
		}
	}

	if IsDurationLike(input) {
		secs, err := ParseSeconds(input)
		if err != nil {
			return model.Target{}, err
		}
		return model.CountdownTarget(secs), nil
	}
	return alarmTarget(input, now)
}

func alarmTarget(input string, now time.Time) (model.Target, error) {
	r := ParseAlarmTime(input, now)
	if r.Error != nil {
		return model.Target{}, r.Error
	}
	return model.AlarmTarget(r.Time), nil
}

// SplitNameAndTarget splits dashboard input of the form "name, schedule".
func SplitNameAndTarget(input string) (name, schedule string, ok bool) {
	i := strings.LastIndex(input, ",")
	if i < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(input[:i])
	schedule = strings.TrimSpace(input[i+1:])
	return name, schedule, name != "" && schedule != ""
}
