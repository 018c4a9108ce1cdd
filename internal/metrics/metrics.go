// Package metrics exposes Prometheus counters for the contact pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio"

// Submission outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeRateLimited   = "rate_limited"
	OutcomeInvalid       = "invalid"
	OutcomePersistFailed = "persist_failed"
)

// Notification results.
const (
	NotificationSent       = "sent"
	NotificationFailed     = "failed"
	NotificationSkipped    = "skipped"
	NotificationRetried    = "retried"
	NotificationDeadLetter = "dead_lettered"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	submissions     *prometheus.CounterVec
	rateLimitChecks *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	swept           prometheus.Counter
	dlqPurged       prometheus.Counter
}

// New registers every collector, plus the Go and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Contact form submissions by pipeline outcome.",
		}, []string{"outcome"}),
		rateLimitChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_checks_total",
			Help:      "Contact rate limit decisions.",
		}, []string{"allowed"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Owner notification attempts by result.",
		}, []string{"result"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_swept_total",
			Help:      "Expired rate limit entries removed by the sweeper.",
		}),
		dlqPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dlq_purged_total",
			Help:      "Dead-lettered notifications dropped after the retention period.",
		}),
	}
	reg.MustRegister(m.submissions, m.rateLimitChecks, m.notifications, m.swept, m.dlqPurged)
	return m
}

// Submission counts one pipeline run.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// RateLimitCheck counts one limiter decision.
func (m *Metrics) RateLimitCheck(allowed bool) {
	if m == nil {
		return
	}
	m.rateLimitChecks.WithLabelValues(strconv.FormatBool(allowed)).Inc()
}

// Notification counts one notification attempt.
func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

// Swept adds n removed rate limit entries.
func (m *Metrics) Swept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}

// DLQPurged adds n dead-lettered notifications dropped by the garbage collector.
func (m *Metrics) DLQPurged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dlqPurged.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and push-style exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
