// Package metrics exposes the Prometheus collectors for the check pipeline
// and notifier. The HTTP layer has its own collectors in
// internal/http/middleware; these cover the domain side: how often checks
// run, what they find, and what gets sent.
//
// Label cardinality is kept to the outcome dimension only; user IDs are
// deliberately not labels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ChecksTotal counts completed per-user check runs by outcome
	// ("ok", "error", "busy").
	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_checks_total",
			Help: "Total number of per-user check runs.",
		},
		[]string{"outcome"},
	)

	// CheckDuration records how long a full per-user check run takes.
	// Runs span many remote calls, so buckets reach into minutes.
	CheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "watch_check_duration_seconds",
			Help:    "Duration of per-user check runs in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// ProductsDiscovered counts products seen for the first time.
	ProductsDiscovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_products_discovered_total",
			Help: "Total number of newly discovered products across all users.",
		},
	)

	// DeliveriesFound counts first-time deliverable (product, pincode) pairs.
	DeliveriesFound = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_deliveries_found_total",
			Help: "Total number of newly confirmed deliveries across all users.",
		},
	)

	// NotificationsSent counts outbound messages by result ("ok", "error").
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_notifications_sent_total",
			Help: "Total number of notification send attempts.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(ChecksTotal, CheckDuration, ProductsDiscovered, DeliveriesFound, NotificationsSent)
}
