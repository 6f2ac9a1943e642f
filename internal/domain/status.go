// Package domain holds the closed status enums, their transition tables, and
// the error taxonomy shared by every service. Transitions are fixed domain
// data — they are consulted before any mutation and are not configurable.
package domain

import "fmt"

// ── Order status ─────────────────────────────────────────────────────────────

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderReturned   OrderStatus = "returned"
	OrderRefunded   OrderStatus = "refunded"
)

// orderTransitions is the only source of truth for allowed order edges.
// cancelled and refunded are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderReturned},
	OrderReturned:   {OrderRefunded},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func ParseOrderStatus(v string) (OrderStatus, error) {
	switch OrderStatus(v) {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered,
		OrderCancelled, OrderReturned, OrderRefunded:
		return OrderStatus(v), nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidTransition, v)
}

// ── Stock movement types ─────────────────────────────────────────────────────

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementReturn     MovementType = "return"
	MovementRestock    MovementType = "restock"
	MovementAdjustment MovementType = "adjustment"
	MovementExpired    MovementType = "expired"
	MovementDamaged    MovementType = "damaged"
)

// Delta returns the signed stock change for a positive quantity.
// purchase/return/restock/adjustment increase stock; sale/expired/damaged decrease it.
func (t MovementType) Delta(quantity int) int {
	switch t {
	case MovementSale, MovementExpired, MovementDamaged:
		return -quantity
	default:
		return quantity
	}
}

func ParseMovementType(v string) (MovementType, error) {
	switch MovementType(v) {
	case MovementPurchase, MovementSale, MovementReturn, MovementRestock,
		MovementAdjustment, MovementExpired, MovementDamaged:
		return MovementType(v), nil
	}
	return "", fmt.Errorf("unknown movement type %q", v)
}

// ── Inventory alerts ─────────────────────────────────────────────────────────

type AlertType string

const (
	AlertLowStock     AlertType = "low_stock"
	AlertOutOfStock   AlertType = "out_of_stock"
	AlertReorderPoint AlertType = "reorder_point"
	AlertExpiringSoon AlertType = "expiring_soon"
	AlertExpired      AlertType = "expired"
	AlertOverstock    AlertType = "overstock"
)

type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
	AlertDismissed    AlertStatus = "dismissed"
)

type AlertPriority string

const (
	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// ── Purchase order status ────────────────────────────────────────────────────

type POStatus string

const (
	PODraft             POStatus = "draft"
	POPending           POStatus = "pending"
	POApproved          POStatus = "approved"
	POSent              POStatus = "sent"
	POPartiallyReceived POStatus = "partially_received"
	POReceived          POStatus = "received"
	POCancelled         POStatus = "cancelled"
)

// received and cancelled are terminal; a received PO can never be cancelled.
var poTransitions = map[POStatus][]POStatus{
	PODraft:             {POPending, POCancelled},
	POPending:           {POApproved, POCancelled},
	POApproved:          {POSent, POCancelled},
	POSent:              {POPartiallyReceived, POReceived, POCancelled},
	POPartiallyReceived: {POPartiallyReceived, POReceived, POCancelled},
}

func (s POStatus) CanTransitionTo(next POStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s POStatus) IsTerminal() bool {
	return len(poTransitions[s]) == 0
}

// ── Return status ────────────────────────────────────────────────────────────

type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnReceived  ReturnStatus = "received"
	ReturnProcessed ReturnStatus = "processed"
	ReturnRefunded  ReturnStatus = "refunded"
)

// rejected and refunded are terminal.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnRequested: {ReturnApproved, ReturnRejected},
	ReturnApproved:  {ReturnReceived},
	ReturnReceived:  {ReturnProcessed},
	ReturnProcessed: {ReturnRefunded},
}

func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	for _, allowed := range returnTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
