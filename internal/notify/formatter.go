// Package notify delivers expiry notifications to configured webhooks.
package notify

import (
	"sort"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the appropriate formatter for a webhook type.
func GetFormatter(webhookType string) Formatter {
	switch webhookType {
	case model.WebhookTypeDiscord:
		return &DiscordFormatter{}
	case model.WebhookTypeSlack:
		return &SlackFormatter{}
	case model.WebhookTypeTeams:
		return &TeamsFormatter{}
	default:
		return &GenericFormatter{}
	}
}

// formatterFor picks the formatter for a configured webhook.
func formatterFor(wh model.Webhook) Formatter {
	typ := wh.ResolvedType()
	if typ == model.WebhookTypeGeneric && wh.Template != "" {
		return NewGenericFormatter(wh.Template)
	}
	return GetFormatter(typ)
}

// sortedKeys returns field names in a stable order.
func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func colorOf(n *model.Notification) int {
	if n.Color != 0 {
		return n.Color
	}
	return model.DefaultColorForType(n.Type)
}
