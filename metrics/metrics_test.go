package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAttempt(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAttempt("exa", "apiquery", "success", 120*time.Millisecond)
	m.ObserveAttempt("exa", "apiquery", "network_error", time.Second)
	m.ObserveAttempt("exa", "apiquery", "network_error", time.Second)

	if got := testutil.ToFloat64(m.Attempts.WithLabelValues("exa", "apiquery", "network_error")); got != 2 {
		t.Errorf("network_error attempts = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.AttemptDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestObserveFetchAndBreaker(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFetch(true)
	m.ObserveFetch(false)
	m.ObserveFetch(false)
	m.SetBreakerState("brave", 2)

	if got := testutil.ToFloat64(m.Fetches.WithLabelValues("failure")); got != 2 {
		t.Errorf("failed fetches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BreakerState.WithLabelValues("brave")); got != 2 {
		t.Errorf("breaker state = %v, want 2", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveAttempt("exa", "apiquery", "success", time.Second)
	m.ObserveFetch(true)
	m.SetBreakerState("exa", 0)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	New(reg)
}
