package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook outcome label values
const (
	outcomeApplied  = "applied"
	outcomeIgnored  = "ignored"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

// Metrics holds the billing counters exported on /metrics
type Metrics struct {
	webhookEvents   *prometheus.CounterVec
	webhookDuration *prometheus.HistogramVec
	remindersSent   prometheus.Counter
	refunds         *prometheus.CounterVec
}

// NewMetrics registers the billing metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selt",
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		webhookDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "selt",
			Subsystem: "billing",
			Name:      "webhook_processing_seconds",
			Help:      "Time spent applying a verified webhook event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		remindersSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "selt",
			Subsystem: "billing",
			Name:      "reminders_sent_total",
			Help:      "Renewal reminder emails sent.",
		}),
		refunds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selt",
			Subsystem: "billing",
			Name:      "refunds_total",
			Help:      "Refunds created by initiator.",
		}, []string{"initiator"}),
	}
}
