// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by method, route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopcore_http_requests_total",
		Help: "HTTP requests processed, labeled by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency per route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopcore_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// StockMovements counts committed ledger entries by movement type.
	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopcore_stock_movements_total",
		Help: "Stock movements committed to the ledger, by type.",
	}, []string{"type"})

	// ReservationFailures counts reservations rejected for lack of available stock.
	ReservationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopcore_reservation_failures_total",
		Help: "Reservations rejected due to insufficient available stock.",
	})

	// OrdersCreated counts checkout completions.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopcore_orders_created_total",
		Help: "Orders created.",
	})

	// AlertsTriggered counts alert engine creations/updates by alert type.
	AlertsTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopcore_inventory_alerts_triggered_total",
		Help: "Inventory alerts created or refreshed, by type.",
	}, []string{"type"})
)
