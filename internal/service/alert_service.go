package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/metrics"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AlertService is the alert engine: it consumes committed stock-level changes
// and keeps at most one active alert per (product, type). Acknowledge/resolve
// are plain status writes and never re-trigger evaluation.
type AlertService interface {
	Evaluate(ctx context.Context, productID uuid.UUID) error
	// SweepActiveProducts re-evaluates every alertable product; the hourly
	// background sweep and the manual admin trigger both land here.
	SweepActiveProducts(ctx context.Context) (int, error)

	ListActive(ctx context.Context) ([]dto.AlertResponse, error)
	Acknowledge(ctx context.Context, id uuid.UUID, actor string, notes *string) error
	Resolve(ctx context.Context, id uuid.UUID, actor string, notes *string) error
	Dismiss(ctx context.Context, id uuid.UUID, actor string, notes *string) error
}

type alertService struct {
	alerts     repository.AlertRepository
	products   repository.ProductRepository
	dispatcher *worker.Dispatcher

	// expiryHorizon is how far ahead of ExpirationDate the expiring_soon
	// alert fires.
	expiryHorizon time.Duration
}

func NewAlertService(
	alerts repository.AlertRepository,
	products repository.ProductRepository,
	dispatcher *worker.Dispatcher,
	expiryHorizonDays int,
) AlertService {
	if expiryHorizonDays <= 0 {
		expiryHorizonDays = 30
	}
	return &alertService{
		alerts:        alerts,
		products:      products,
		dispatcher:    dispatcher,
		expiryHorizon: time.Duration(expiryHorizonDays) * 24 * time.Hour,
	}
}

// condition is one threshold check; the slice order in Evaluate is fixed.
type condition struct {
	alertType domain.AlertType
	priority  domain.AlertPriority
	threshold *int
	current   *int
	expiresAt *time.Time
	message   string
}

// Evaluate re-reads the committed product state and upserts one alert per
// breached condition. It is idempotent: repeated evaluation converges to the
// same alert state.
func (s *alertService) Evaluate(ctx context.Context, productID uuid.UUID) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	available := product.AvailableStock()
	now := time.Now()

	var breached []condition

	// Check order is fixed: low stock, out of stock, reorder point,
	// expiration, overstock.
	if product.AlertsEnabled && available <= product.MinStockLevel {
		breached = append(breached, condition{
			alertType: domain.AlertLowStock,
			priority:  domain.PriorityHigh,
			threshold: intPtr(product.MinStockLevel),
			current:   intPtr(available),
			message:   fmt.Sprintf("%s: %d available, minimum is %d", product.Name, available, product.MinStockLevel),
		})
	}
	if available <= 0 {
		breached = append(breached, condition{
			alertType: domain.AlertOutOfStock,
			priority:  domain.PriorityCritical,
			threshold: intPtr(0),
			current:   intPtr(available),
			message:   fmt.Sprintf("%s is out of stock", product.Name),
		})
	}
	if product.AutoRestock && available <= product.ReorderPoint {
		breached = append(breached, condition{
			alertType: domain.AlertReorderPoint,
			priority:  domain.PriorityHigh,
			threshold: intPtr(product.ReorderPoint),
			current:   intPtr(available),
			message:   fmt.Sprintf("%s reached its reorder point (%d available)", product.Name, available),
		})
	}
	if product.TrackExpiration && product.ExpirationDate != nil {
		switch {
		case product.ExpirationDate.Before(now):
			breached = append(breached, condition{
				alertType: domain.AlertExpired,
				priority:  domain.PriorityCritical,
				expiresAt: product.ExpirationDate,
				message:   fmt.Sprintf("%s expired on %s", product.Name, product.ExpirationDate.Format("2006-01-02")),
			})
		case product.ExpirationDate.Before(now.Add(s.expiryHorizon)):
			breached = append(breached, condition{
				alertType: domain.AlertExpiringSoon,
				priority:  domain.PriorityMedium,
				expiresAt: product.ExpirationDate,
				message:   fmt.Sprintf("%s expires on %s", product.Name, product.ExpirationDate.Format("2006-01-02")),
			})
		}
	}
	if product.MaxStockLevel > 0 && available > product.MaxStockLevel {
		breached = append(breached, condition{
			alertType: domain.AlertOverstock,
			priority:  domain.PriorityLow,
			threshold: intPtr(product.MaxStockLevel),
			current:   intPtr(available),
			message:   fmt.Sprintf("%s: %d available exceeds maximum of %d", product.Name, available, product.MaxStockLevel),
		})
	}

	for _, c := range breached {
		if err := s.upsert(ctx, product, c); err != nil {
			return err
		}
	}
	return nil
}

// upsert updates the existing active alert for (product, type) in place, or
// creates a fresh row when none is active. Creating a critical alert fires a
// notification job; notification failure never rolls back the alert.
func (s *alertService) upsert(ctx context.Context, product *model.Product, c condition) error {
	existing, err := s.alerts.FindActive(ctx, product.ID, string(c.alertType))
	if err == nil {
		existing.Priority = string(c.priority)
		existing.Threshold = c.threshold
		existing.CurrentValue = c.current
		existing.ExpirationDate = c.expiresAt
		existing.Message = c.message
		metrics.AlertsTriggered.WithLabelValues(string(c.alertType)).Inc()
		return s.alerts.Update(ctx, existing)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	alert := &model.InventoryAlert{
		ProductID:      product.ID,
		Type:           string(c.alertType),
		Status:         string(domain.AlertActive),
		Priority:       string(c.priority),
		Threshold:      c.threshold,
		CurrentValue:   c.current,
		ExpirationDate: c.expiresAt,
		Message:        c.message,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return err
	}
	metrics.AlertsTriggered.WithLabelValues(string(c.alertType)).Inc()

	if c.priority == domain.PriorityCritical && s.dispatcher != nil {
		payload := worker.AlertNotificationPayload{
			AlertID:   alert.ID.String(),
			ProductID: product.ID.String(),
			SKU:       product.SKU,
			AlertType: string(c.alertType),
			Priority:  string(c.priority),
			Message:   c.message,
		}
		if err := s.dispatcher.EnqueueNotification(ctx, payload); err != nil {
			log.Error().Err(err).Str("alert_id", alert.ID.String()).
				Msg("failed to enqueue critical alert notification")
		}
	}
	return nil
}

func (s *alertService) SweepActiveProducts(ctx context.Context) (int, error) {
	products, err := s.products.ListAlertable(ctx)
	if err != nil {
		return 0, err
	}
	evaluated := 0
	for i := range products {
		if err := s.Evaluate(ctx, products[i].ID); err != nil {
			log.Error().Err(err).Str("product_id", products[i].ID.String()).
				Msg("alert sweep: evaluation failed")
			continue
		}
		evaluated++
	}
	return evaluated, nil
}

func (s *alertService) ListActive(ctx context.Context) ([]dto.AlertResponse, error) {
	alerts, err := s.alerts.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertResponse, 0, len(alerts))
	for i := range alerts {
		out = append(out, *alertToResponse(&alerts[i]))
	}
	return out, nil
}

func (s *alertService) Acknowledge(ctx context.Context, id uuid.UUID, actor string, notes *string) error {
	return s.setStatus(ctx, id, domain.AlertAcknowledged, actor, notes)
}

func (s *alertService) Resolve(ctx context.Context, id uuid.UUID, actor string, notes *string) error {
	return s.setStatus(ctx, id, domain.AlertResolved, actor, notes)
}

func (s *alertService) Dismiss(ctx context.Context, id uuid.UUID, actor string, notes *string) error {
	return s.setStatus(ctx, id, domain.AlertDismissed, actor, notes)
}

func (s *alertService) setStatus(ctx context.Context, id uuid.UUID, status domain.AlertStatus, actor string, notes *string) error {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if alert.Status != string(domain.AlertActive) && status != domain.AlertResolved {
		return fmt.Errorf("%w: alert is %s, not active", domain.ErrConflict, alert.Status)
	}

	now := time.Now()
	alert.Status = string(status)
	if notes != nil {
		alert.Notes = notes
	}
	switch status {
	case domain.AlertAcknowledged:
		alert.AcknowledgedBy = &actor
		alert.AcknowledgedAt = &now
	case domain.AlertResolved, domain.AlertDismissed:
		alert.ResolvedBy = &actor
		alert.ResolvedAt = &now
	}
	return s.alerts.Update(ctx, alert)
}

func alertToResponse(a *model.InventoryAlert) *dto.AlertResponse {
	resp := &dto.AlertResponse{
		ID:           a.ID.String(),
		ProductID:    a.ProductID.String(),
		Type:         a.Type,
		Status:       a.Status,
		Priority:     a.Priority,
		Threshold:    a.Threshold,
		CurrentValue: a.CurrentValue,
		Message:      a.Message,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
	if a.Product != nil {
		resp.ProductName = a.Product.Name
	}
	return resp
}

func intPtr(v int) *int { return &v }
