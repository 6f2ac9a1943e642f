package worker

// notify_worker.go
// Processes critical-alert jobs from QueueNotify: posts the alert to the
// ops webhook through the circuit breaker so a downed receiver does not
// stall the pool.

import (
	"context"
	"encoding/json"
	"fmt"

	"shopcore/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertNotificationPayload is the job envelope sent to QueueNotify.
type AlertNotificationPayload struct {
	AlertID   string `json:"alert_id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	AlertType string `json:"alert_type"`
	Priority  string `json:"priority"`
	Message   string `json:"message"`
}

// NotifyWorker delivers critical inventory alerts to the external webhook.
type NotifyWorker struct {
	notifier *infra.WebhookNotifier
	cb       *infra.CircuitBreaker
}

func NewNotifyWorker(notifier *infra.WebhookNotifier, cb *infra.CircuitBreaker) *NotifyWorker {
	return &NotifyWorker{notifier: notifier, cb: cb}
}

// Process posts one notification. Delivery failures (including a tripped
// breaker) are returned so the pool re-enqueues the job.
func (w *NotifyWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload AlertNotificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notify_worker: invalid payload")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.notifier.Notify(ctx, infra.AlertNotification{
			AlertID:   payload.AlertID,
			ProductID: payload.ProductID,
			SKU:       payload.SKU,
			Type:      payload.AlertType,
			Priority:  payload.Priority,
			Message:   payload.Message,
		})
	})
	if err != nil {
		return fmt.Errorf("notify_worker: deliver alert %s: %w", payload.AlertID, err)
	}

	log.Info().Str("alert_id", payload.AlertID).Str("type", payload.AlertType).
		Msg("notify_worker: alert delivered")
	return nil
}
