// Package metrics holds the Prometheus collectors of the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoshop_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoshop_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoshop_order_transitions_total",
			Help: "Order status transitions, by source and target status",
		},
		[]string{"from", "to"},
	)

	StockAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoshop_stock_adjustments_total",
			Help: "Stock adjustments by reason and outcome",
		},
		[]string{"reason", "outcome"},
	)

	CASRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoshop_cas_retries_total",
			Help: "Lost compare-and-set races that triggered a retry",
		},
		[]string{"entity"},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoshop_notification_failures_total",
			Help: "Notification emails that could not be delivered",
		},
		[]string{"kind"},
	)

	SearchIndexFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecoshop_search_index_failures_total",
			Help: "Failed writes to the product search index",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoshop_circuit_breaker_state",
			Help: "Current state of a circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
