package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records gateway webhook processing outcomes.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook events received, labeled by event name and outcome.",
	}, []string{"event", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Duration of webhook event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	reg.MustRegister(received, duration)
	return &WebhookMetrics{
		received: received,
		duration: duration,
	}
}

// Outcome labels for webhook events.
const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeDropped   = "dropped"
	WebhookOutcomeFailed    = "failed"
)

// IncEvent increments the event counter for the given event name and outcome.
func (w *WebhookMetrics) IncEvent(event, outcome string) {
	if w == nil || w.received == nil {
		return
	}
	w.received.WithLabelValues(labelOrUnknown(event), labelOrUnknown(outcome)).Inc()
}

// ObserveEventDuration records how long handling a webhook event took.
func (w *WebhookMetrics) ObserveEventDuration(event string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(labelOrUnknown(event)).Observe(duration.Seconds())
}
