// Package metrics exposes Prometheus collectors for search attempts,
// page fetches and provider circuit breakers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "websearch"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Labels: provider, mode, outcome (success|empty|<error kind>)
	Attempts *prometheus.CounterVec
	// Labels: provider, mode
	AttemptDuration *prometheus.HistogramVec
	// Labels: outcome (success|failure)
	Fetches *prometheus.CounterVec
	// 0 closed, 1 half-open, 2 open. Labels: provider
	BreakerState *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Provider search attempts by outcome",
		}, []string{"provider", "mode", "outcome"}),
		AttemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Duration of provider search attempts",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "mode"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Result page fetches by outcome",
		}, []string{"outcome"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per provider",
		}, []string{"provider"}),
	}
	if reg != nil {
		reg.MustRegister(m.Attempts, m.AttemptDuration, m.Fetches, m.BreakerState)
	}
	return m
}

func (m *Metrics) ObserveAttempt(provider, mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(provider, mode, outcome).Inc()
	m.AttemptDuration.WithLabelValues(provider, mode).Observe(d.Seconds())
}

func (m *Metrics) ObserveFetch(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.Fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetBreakerState(provider string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(provider).Set(state)
}
