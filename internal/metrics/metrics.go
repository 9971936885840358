// Package metrics registers the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "district_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "district_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "district_bookings_created_total",
		Help: "Bookings created, by kind.",
	}, []string{"kind"})

	PaymentsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "district_payments_confirmed_total",
		Help: "Payment confirmations, by outcome.",
	}, []string{"outcome"})

	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "district_outbox_published_total",
		Help: "Outbox entries successfully relayed.",
	})

	OutboxFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "district_outbox_failures_total",
		Help: "Outbox relay attempts that failed.",
	})
)

// RegisterDegradedQueueSize exposes the degradation queue depth as a gauge
// read on scrape.
func RegisterDegradedQueueSize(size func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "district_degraded_queue_size",
		Help: "Booking requests parked while the store is unreachable.",
	}, func() float64 { return float64(size()) })
}
