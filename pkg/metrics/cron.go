package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const jobLabel = "job"

// CronJobMetrics tracks execution counts and latency per scheduled job. A
// zero-value receiver is a no-op so unregistered binaries skip metrics
// without nil checks at call sites.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics registers the collectors on reg; a nil registerer yields
// the no-op form.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}

	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_job_duration_seconds",
			Help:    "Wall time of one cron job run.",
			Buckets: prometheus.DefBuckets,
		}, []string{jobLabel}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_success_total",
			Help: "Cron job runs that completed without error.",
		}, []string{jobLabel}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_failure_total",
			Help: "Cron job runs that returned an error.",
		}, []string{jobLabel}),
	}
	reg.MustRegister(m.duration, m.success, m.failure)
	return m
}

// ObserveDuration records one run's wall time.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c != nil && c.duration != nil {
		c.duration.WithLabelValues(labelOrUnknown(job)).Observe(duration.Seconds())
	}
}

// IncSuccess counts a clean run.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c != nil && c.success != nil {
		c.success.WithLabelValues(labelOrUnknown(job)).Inc()
	}
}

// IncFailure counts a failed run.
func (c *CronJobMetrics) IncFailure(job string) {
	if c != nil && c.failure != nil {
		c.failure.WithLabelValues(labelOrUnknown(job)).Inc()
	}
}

func labelOrUnknown(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
