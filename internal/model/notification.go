package model

import (
	"time"
)

// NotificationType defines the type of notification.
type NotificationType string

// Notification types.
const (
	NotifyCountdown    NotificationType = "countdown"
	NotifyAlarm        NotificationType = "alarm"
	NotifyActionFailed NotificationType = "action_failed"
	NotifyTest         NotificationType = "test"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Color     int               `json:"color,omitempty"` // Hex color for embeds
}

// NewNotification creates a new notification.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewExpiryNotification describes an expired timer.
func NewExpiryNotification(entry TimerEntry, firedAt time.Time) *Notification {
	t := NotifyCountdown
	msg := "Countdown finished"
	if entry.IsAlarm() {
		t = NotifyAlarm
		msg = "Alarm went off"
	}
	n := NewNotification(t, entry.Name, msg)
	n.Timestamp = firedAt
	n.WithField("id", entry.ID)
	if entry.ActionPath != "" {
		n.WithField("action", entry.ActionPath)
	}
	return n.WithColor(DefaultColorForType(t))
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithColor sets the embed color.
func (n *Notification) WithColor(color int) *Notification {
	n.Color = color
	return n
}

// Notification colors (Discord-compatible hex values).
const (
	ColorSuccess = 0x57F287 // Green
	ColorWarning = 0xFEE75C // Yellow
	ColorInfo    = 0x5865F2 // Blurple
	ColorError   = 0xED4245 // Red
)

// DefaultColorForType returns the default color for a notification type.
func DefaultColorForType(t NotificationType) int {
	switch t {
	case NotifyCountdown:
		return ColorSuccess
	case NotifyAlarm:
		return ColorWarning
	case NotifyActionFailed:
		return ColorError
	default:
		return ColorInfo
	}
}

// Icon returns an emoji shortcode for the notification type.
func (n *Notification) Icon() string {
	switch n.Type {
	case NotifyCountdown:
		return "hourglass"
	case NotifyAlarm:
		return "alarm_clock"
	case NotifyActionFailed:
		return "warning"
	case NotifyTest:
		return "test_tube"
	default:
		return "bell"
	}
}

// TypeLabel returns a human-readable label for the notification type.
func (n *Notification) TypeLabel() string {
	switch n.Type {
	case NotifyCountdown:
		return "Countdown"
	case NotifyAlarm:
		return "Alarm"
	case NotifyActionFailed:
		return "Action Failed"
	case NotifyTest:
		return "Test Notification"
	default:
		return "Notification"
	}
}
