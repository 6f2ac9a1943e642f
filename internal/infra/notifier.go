package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AlertNotification is the body posted to the ops webhook when a critical
// inventory alert fires.
type AlertNotification struct {
	AlertID   string `json:"alert_id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Message   string `json:"message"`
}

// WebhookNotifier delivers critical alerts to an external HTTP receiver
// (Slack-style webhook, pager bridge). Callers wrap delivery in the circuit
// breaker so a downed receiver fails fast.
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts one alert. Any non-2xx response is an error so the worker pool
// can retry.
func (n *WebhookNotifier) Notify(ctx context.Context, alert AlertNotification) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("notifier: marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: webhook unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: webhook returned %d", resp.StatusCode)
	}
	return nil
}
