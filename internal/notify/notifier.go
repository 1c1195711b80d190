package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// Result is the outcome of sending to one webhook.
type Result struct {
	WebhookName string
	Success     bool
	StatusCode  int
	Attempts    int
	Duration    time.Duration
	Error       error
}

// Notifier sends notifications to every enabled webhook.
type Notifier struct {
	webhooks []model.Webhook
	client   *HTTPClient
	onResult func(Result)
	wg       sync.WaitGroup
}

// NewNotifier creates a notifier for the enabled webhooks in the list.
func NewNotifier(webhooks []model.Webhook) *Notifier {
	enabled := make([]model.Webhook, 0, len(webhooks))
	for _, wh := range webhooks {
		if wh.IsEnabled() {
			enabled = append(enabled, wh)
		}
	}
	return &Notifier{webhooks: enabled, client: NewHTTPClient()}
}

// WithClient replaces the HTTP client.
func (n *Notifier) WithClient(c *HTTPClient) *Notifier {
	n.client = c
	return n
}

// OnResult registers a callback run after every webhook send.
func (n *Notifier) OnResult(fn func(Result)) *Notifier {
	n.onResult = fn
	return n
}

// Webhooks returns the enabled webhooks.
func (n *Notifier) Webhooks() []model.Webhook {
	return append([]model.Webhook(nil), n.webhooks...)
}

// HasWebhooks returns true if there is anything to send to.
func (n *Notifier) HasWebhooks() bool {
	return len(n.webhooks) > 0
}

// Send delivers notif to all webhooks concurrently and waits for them.
func (n *Notifier) Send(ctx context.Context, notif *model.Notification) []Result {
	if len(n.webhooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make([]Result, len(n.webhooks))
	for i, wh := range n.webhooks {
		wg.Add(1)
		go func(idx int, wh model.Webhook) {
			defer wg.Done()
			results[idx] = n.sendToWebhook(ctx, notif, wh)
		}(i, wh)
	}
	wg.Wait()
	return results
}

// Post sends in the background. Use Wait to block until outstanding posts
// finish.
func (n *Notifier) Post(notif *model.Notification) {
	if len(n.webhooks) == 0 {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.Send(context.Background(), notif)
	}()
}

// Wait blocks until every Post has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// SendToSingle sends a notification to one webhook by name.
func (n *Notifier) SendToSingle(ctx context.Context, notif *model.Notification, name string) Result {
	for _, wh := range n.webhooks {
		if wh.Name == name {
			return n.sendToWebhook(ctx, notif, wh)
		}
	}
	return Result{WebhookName: name, Error: fmt.Errorf("webhook not found: %s", name)}
}

// TestWebhook sends a test notification to one webhook.
func (n *Notifier) TestWebhook(ctx context.Context, name string) Result {
	notif := model.NewNotification(
		model.NotifyTest,
		"tickwatch test",
		"This is a test notification from tickwatch. If you see this, your webhook is configured correctly!",
	).WithField("Webhook", name).WithField("Time", time.Now().Format("3:04 PM"))
	return n.SendToSingle(ctx, notif, name)
}

func (n *Notifier) sendToWebhook(ctx context.Context, notif *model.Notification, wh model.Webhook) Result {
	result := Result{WebhookName: wh.Name}

	formatter := formatterFor(wh)
	payload, err := formatter.Format(notif)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		n.report(result, wh)
		return result
	}

	sent := n.client.Send(ctx, wh.URL, formatter.ContentType(), payload, wh.Headers)
	result.StatusCode = sent.StatusCode
	result.Attempts = sent.Attempts
	result.Duration = sent.Duration
	result.Error = sent.Error
	result.Success = sent.Error == nil

	n.report(result, wh)
	return result
}

func (n *Notifier) report(result Result, wh model.Webhook) {
	if result.Success {
		logging.DebugLog("webhook delivered",
			logging.KeyWebhook, wh.Name,
			logging.KeyStatus, result.StatusCode,
			logging.KeyDuration, result.Duration.Milliseconds())
	} else {
		logging.Warn("webhook delivery failed",
			logging.KeyWebhook, wh.Name,
			"url", logging.MaskURL(wh.URL),
			logging.KeyStatus, result.StatusCode,
			"attempts", result.Attempts,
			logging.KeyError, result.Error)
	}
	if n.onResult != nil {
		n.onResult(result)
	}
}
