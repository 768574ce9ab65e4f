// Package metrics holds the prometheus collectors for API calls and bot traffic
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orphanage"

// Metrics groups every collector the application records into
type Metrics struct {
	Registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
	botUpdates  *prometheus.CounterVec
	rateLimited prometheus.Counter
	submissions *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Requests sent to the orphanage API by operation and result.",
		}, []string{"operation", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of orphanage API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		botUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_updates_total",
			Help:      "Telegram updates handled by kind.",
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_rate_limited_total",
			Help:      "Telegram updates dropped by the per-chat limiter.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Orphanage creation submissions by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(m.apiRequests, m.apiDuration, m.botUpdates, m.rateLimited, m.submissions)
	return m
}

// ObserveAPI records one API call. A nil receiver is a no-op so callers can skip metrics.
func (m *Metrics) ObserveAPI(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, status).Inc()
	m.apiDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) BotUpdate(kind string) {
	if m == nil {
		return
	}
	m.botUpdates.WithLabelValues(kind).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}
