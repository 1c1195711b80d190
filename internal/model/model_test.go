package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Kind / Target Tests
// =============================================================================

func TestParseKind(t *testing.T) {
	k, err := ParseKind("countdown")
	require.NoError(t, err)
	assert.Equal(t, KindCountdown, k)

	k, err = ParseKind("alarm")
	require.NoError(t, err)
	assert.Equal(t, KindAlarm, k)

	_, err = ParseKind("stopwatch")
	assert.Error(t, err)
}

func TestAlarmTargetTruncates(t *testing.T) {
	at := time.Date(2026, 3, 1, 7, 0, 0, 900_000_000, time.UTC)
	target := AlarmTarget(at)
	assert.Equal(t, KindAlarm, target.Kind)
	assert.Equal(t, 0, target.TriggerAt.Nanosecond())
}

func TestTargetEqual(t *testing.T) {
	at := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	assert.True(t, CountdownTarget(60).Equal(CountdownTarget(60)))
	assert.False(t, CountdownTarget(60).Equal(CountdownTarget(61)))
	assert.True(t, AlarmTarget(at).Equal(AlarmTarget(at.In(time.Local))))
	assert.False(t, AlarmTarget(at).Equal(AlarmTarget(at.Add(time.Second))))
	assert.False(t, CountdownTarget(60).Equal(AlarmTarget(at)))
}

// =============================================================================
// TimerEntry Tests
// =============================================================================

func TestRemainingAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	t.Run("countdown", func(t *testing.T) {
		e := TimerEntry{Kind: KindCountdown, Duration: 60, Remaining: 42}
		assert.Equal(t, int64(42), e.RemainingAt(now))
	})

	t.Run("countdown_clamped", func(t *testing.T) {
		e := TimerEntry{Kind: KindCountdown, Duration: 60, Remaining: -3}
		assert.Equal(t, int64(0), e.RemainingAt(now))
	})

	t.Run("alarm_future", func(t *testing.T) {
		e := TimerEntry{Kind: KindAlarm, TriggerAt: now.Add(5 * time.Second)}
		assert.Equal(t, int64(5), e.RemainingAt(now))
	})

	t.Run("alarm_partial_second_rounds_up", func(t *testing.T) {
		e := TimerEntry{Kind: KindAlarm, TriggerAt: now.Add(time.Second)}
		assert.Equal(t, int64(1), e.RemainingAt(now.Add(300*time.Millisecond)))
	})

	t.Run("alarm_past", func(t *testing.T) {
		e := TimerEntry{Kind: KindAlarm, TriggerAt: now.Add(-time.Hour)}
		assert.Equal(t, int64(0), e.RemainingAt(now))
	})
}

func TestDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	assert.True(t, TimerEntry{Kind: KindAlarm, TriggerAt: now}.Due(now))
	assert.False(t, TimerEntry{Kind: KindAlarm, TriggerAt: now.Add(time.Second)}.Due(now))
	assert.False(t, TimerEntry{Kind: KindCountdown}.Due(now))
}

func TestReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	t.Run("countdown_starts_inactive", func(t *testing.T) {
		e := TimerEntry{Kind: KindAlarm, TriggerAt: now.Add(time.Hour), Active: true, Dismissed: true}
		e.Reset(CountdownTarget(300), now)
		assert.Equal(t, KindCountdown, e.Kind)
		assert.Equal(t, int64(300), e.Duration)
		assert.Equal(t, int64(300), e.Remaining)
		assert.True(t, e.TriggerAt.IsZero())
		assert.False(t, e.Active)
		assert.False(t, e.Dismissed)
	})

	t.Run("future_alarm_starts_active", func(t *testing.T) {
		e := TimerEntry{Kind: KindCountdown, Duration: 60, Remaining: 10, Active: true}
		e.Reset(AlarmTarget(now.Add(time.Minute)), now)
		assert.Equal(t, KindAlarm, e.Kind)
		assert.Zero(t, e.Duration)
		assert.Zero(t, e.Remaining)
		assert.True(t, e.Active)
	})

	t.Run("alarm_at_now_starts_inactive", func(t *testing.T) {
		var e TimerEntry
		e.Reset(AlarmTarget(now), now)
		assert.False(t, e.Active)
	})
}

func TestEntryTarget(t *testing.T) {
	at := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, CountdownTarget(90), TimerEntry{Kind: KindCountdown, Duration: 90, Remaining: 3}.Target())
	assert.Equal(t, AlarmTarget(at), TimerEntry{Kind: KindAlarm, TriggerAt: at}.Target())
}

// =============================================================================
// FiredRecord Tests
// =============================================================================

func TestGenerateFiredKeySortsChronologically(t *testing.T) {
	early := time.Unix(9, 0)
	late := time.Unix(10, 0)
	k1 := GenerateFiredKey(early, "b")
	k2 := GenerateFiredKey(late, "a")
	assert.Less(t, k1, k2)
	assert.Contains(t, k1, "fired:")
}

func TestNewFiredRecord(t *testing.T) {
	at := time.Unix(1760000000, 0)
	e := TimerEntry{ID: "id-1", Name: "tea", Kind: KindCountdown, ActionPath: "/bin/true"}
	r := NewFiredRecord(e, at)

	assert.Equal(t, "id-1", r.TimerID)
	assert.Equal(t, "tea", r.Name)
	assert.Equal(t, KindCountdown, r.Kind)
	assert.Equal(t, at, r.FiredAt)
	assert.False(t, r.Failed())

	r.SetKey("fired:1")
	assert.Equal(t, "fired:1", r.GetKey())
}

// =============================================================================
// Notification / Webhook Tests
// =============================================================================

func TestNewExpiryNotification(t *testing.T) {
	at := time.Unix(1760000000, 0)

	n := NewExpiryNotification(TimerEntry{ID: "a", Name: "tea", Kind: KindCountdown}, at)
	assert.Equal(t, NotifyCountdown, n.Type)
	assert.Equal(t, "tea", n.Title)
	assert.Equal(t, at, n.Timestamp)
	assert.Equal(t, ColorSuccess, n.Color)
	assert.NotContains(t, n.Fields, "action")

	n = NewExpiryNotification(TimerEntry{ID: "b", Name: "wake", Kind: KindAlarm, ActionPath: "/x"}, at)
	assert.Equal(t, NotifyAlarm, n.Type)
	assert.Equal(t, "Alarm", n.TypeLabel())
	assert.Equal(t, "alarm_clock", n.Icon())
	assert.Equal(t, "/x", n.Fields["action"])
}

func TestDetectWebhookType(t *testing.T) {
	assert.Equal(t, WebhookTypeDiscord, DetectWebhookType("https://discord.com/api/webhooks/1/abc"))
	assert.Equal(t, WebhookTypeSlack, DetectWebhookType("https://hooks.slack.com/services/T/B/X"))
	assert.Equal(t, WebhookTypeTeams, DetectWebhookType("https://x.webhook.office.com/abc"))
	assert.Equal(t, WebhookTypeGeneric, DetectWebhookType("https://example.com/hook"))
}

func TestWebhookResolvedType(t *testing.T) {
	w := &Webhook{URL: "https://hooks.slack.com/services/T/B/X"}
	assert.Equal(t, WebhookTypeSlack, w.ResolvedType())
	assert.True(t, w.IsEnabled())

	w.Type = WebhookTypeGeneric
	assert.Equal(t, WebhookTypeGeneric, w.ResolvedType())
	assert.True(t, IsValidWebhookType(w.Type))
	assert.False(t, IsValidWebhookType("email"))
}
