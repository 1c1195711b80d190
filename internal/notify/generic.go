package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// GenericFormatter posts a flat JSON event, or the user's own template
// rendered against the same data.
type GenericFormatter struct {
	Template string
}

// genericPayload is what a generic webhook receives when no template is set.
// Title carries the timer name for expiry events.
type genericPayload struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	TimerID   string            `json:"timer_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp string            `json:"timestamp"`
	Unix      int64             `json:"unix"`
	Color     int               `json:"color,omitempty"`
}

// NewGenericFormatter creates a formatter that renders tmpl, if non-empty.
func NewGenericFormatter(tmpl string) *GenericFormatter {
	return &GenericFormatter{Template: tmpl}
}

func (f *GenericFormatter) payload(n *model.Notification) genericPayload {
	return genericPayload{
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		TimerID:   n.Fields["id"],
		Fields:    n.Fields,
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		Unix:      n.Timestamp.Unix(),
		Color:     colorOf(n),
	}
}

// Format implements Formatter.
func (f *GenericFormatter) Format(n *model.Notification) ([]byte, error) {
	p := f.payload(n)
	if f.Template == "" {
		return json.Marshal(p)
	}

	tmpl, err := template.New("webhook").Option("missingkey=zero").Parse(f.Template)
	if err != nil {
		return nil, fmt.Errorf("webhook template: %w", err)
	}

	// Templates see the payload fields plus the raw time, e.g.
	// {{.Title}} or {{index .Fields "action"}} or {{.Time.Format "15:04"}}.
	data := struct {
		genericPayload
		Time time.Time
	}{p, n.Timestamp}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("webhook template: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements Formatter.
func (f *GenericFormatter) ContentType() string {
	return "application/json"
}
