package notify

import (
	"encoding/json"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// TeamsFormatter posts an Adaptive Card, the format Teams workflow webhooks
// accept.
type TeamsFormatter struct{}

const adaptiveCardType = "application/vnd.microsoft.card.adaptive"

type teamsPayload struct {
	Type        string            `json:"type"`
	Attachments []teamsAttachment `json:"attachments"`
}

type teamsAttachment struct {
	ContentType string    `json:"contentType"`
	Content     teamsCard `json:"content"`
}

type teamsCard struct {
	Schema  string           `json:"$schema"`
	Type    string           `json:"type"`
	Version string           `json:"version"`
	Body    []map[string]any `json:"body"`
}

// Format implements Formatter.
func (f *TeamsFormatter) Format(n *model.Notification) ([]byte, error) {
	// Adaptive cards only know a few named colors.
	style := "default"
	switch n.Type {
	case model.NotifyAlarm:
		style = "warning"
	case model.NotifyCountdown:
		style = "good"
	case model.NotifyActionFailed:
		style = "attention"
	}

	body := []map[string]any{
		{"type": "TextBlock", "text": n.Title, "size": "Large", "weight": "Bolder", "color": style, "wrap": true},
		{"type": "TextBlock", "text": n.Message, "wrap": true},
	}
	if len(n.Fields) > 0 {
		facts := make([]map[string]string, 0, len(n.Fields))
		for _, key := range sortedKeys(n.Fields) {
			facts = append(facts, map[string]string{"title": key, "value": n.Fields[key]})
		}
		body = append(body, map[string]any{"type": "FactSet", "facts": facts})
	}
	body = append(body, map[string]any{
		"type":     "TextBlock",
		"text":     "tickwatch | " + n.TypeLabel() + " | " + n.Timestamp.Format("Jan 2, 3:04 PM"),
		"isSubtle": true,
		"size":     "Small",
	})

	return json.Marshal(teamsPayload{
		Type: "message",
		Attachments: []teamsAttachment{{
			ContentType: adaptiveCardType,
			Content: teamsCard{
				Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
				Type:    "AdaptiveCard",
				Version: "1.4",
				Body:    body,
			},
		}},
	})
}

// ContentType implements Formatter.
func (f *TeamsFormatter) ContentType() string {
	return "application/json"
}
