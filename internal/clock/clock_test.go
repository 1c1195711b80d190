package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClock(t *testing.T) {
	before := time.Now()
	now := System.Now()
	assert.False(t, now.Before(before))
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)
	assert.Equal(t, start, c.Now())

	got := c.Advance(5 * time.Second)
	assert.Equal(t, start.Add(5*time.Second), got)
	assert.Equal(t, got, c.Now())

	later := start.Add(time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}
