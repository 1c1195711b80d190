package model

import (
	"strings"
)

// Webhook type constants.
const (
	WebhookTypeDiscord = "discord"
	WebhookTypeSlack   = "slack"
	WebhookTypeTeams   = "teams"
	WebhookTypeGeneric = "generic"
)

// Webhook is a notification target from the config file.
type Webhook struct {
	Name     string            `yaml:"name" json:"name"`
	Type     string            `yaml:"type" json:"type"`
	URL      string            `yaml:"url" json:"url"`
	Disabled bool              `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Template string            `yaml:"template,omitempty" json:"template,omitempty"` // generic only
	Headers  map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// IsEnabled returns true if the webhook is enabled.
func (w *Webhook) IsEnabled() bool {
	return !w.Disabled
}

// ResolvedType returns the configured type, detecting it from the URL when unset.
func (w *Webhook) ResolvedType() string {
	if w.Type != "" {
		return w.Type
	}
	return DetectWebhookType(w.URL)
}

// ValidWebhookTypes returns the list of valid webhook types.
func ValidWebhookTypes() []string {
	return []string{WebhookTypeDiscord, WebhookTypeSlack, WebhookTypeTeams, WebhookTypeGeneric}
}

// IsValidWebhookType checks if a type is valid.
func IsValidWebhookType(t string) bool {
	for _, valid := range ValidWebhookTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// DetectWebhookType attempts to detect the webhook type from the URL.
func DetectWebhookType(url string) string {
	urlLower := strings.ToLower(url)

	switch {
	case strings.Contains(urlLower, "discord.com/api/webhooks"):
		return WebhookTypeDiscord
	case strings.Contains(urlLower, "hooks.slack.com"):
		return WebhookTypeSlack
	case strings.Contains(urlLower, "outlook.office.com/webhook") ||
		strings.Contains(urlLower, "webhook.office.com"):
		return WebhookTypeTeams
	default:
		return WebhookTypeGeneric
	}
}
