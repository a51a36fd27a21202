package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for session activity. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	sessionsStarted prometheus.Counter
	sessionsActive  prometheus.Gauge
	classifications *prometheus.CounterVec
	catalogDuration *prometheus.HistogramVec
	shuffles        *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	staleResponses  *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on conflicts.
// Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stylefit",
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Sessions created.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stylefit",
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently held by the store.",
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stylefit",
			Subsystem: "session",
			Name:      "classifications_total",
			Help:      "Completed questionnaires by resolved persona.",
		}, []string{"persona"}),
		catalogDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stylefit",
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Catalog gateway latency by call and result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call", "result"}),
		shuffles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stylefit",
			Subsystem: "session",
			Name:      "shuffles_total",
			Help:      "Category shuffles by category and result.",
		}, []string{"category", "result"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stylefit",
			Subsystem: "session",
			Name:      "checkouts_total",
			Help:      "Checkout submissions by outcome.",
		}, []string{"outcome"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stylefit",
			Subsystem: "session",
			Name:      "stale_responses_total",
			Help:      "Remote responses discarded because the session moved on.",
		}, []string{"call"}),
	}
	reg.MustRegister(
		m.sessionsStarted,
		m.sessionsActive,
		m.classifications,
		m.catalogDuration,
		m.shuffles,
		m.checkouts,
		m.staleResponses,
	)
	return m
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *Metrics) Classified(persona string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(persona).Inc()
}

func (m *Metrics) ObserveCatalog(call string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.catalogDuration.WithLabelValues(call, resultLabel(err)).Observe(d.Seconds())
}

func (m *Metrics) Shuffled(category string, err error) {
	if m == nil {
		return
	}
	m.shuffles.WithLabelValues(category, resultLabel(err)).Inc()
}

func (m *Metrics) CheckedOut(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Stale(call string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(call).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
