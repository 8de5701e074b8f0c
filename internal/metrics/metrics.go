package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lab"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	overdueTransitions prometheus.Counter
	allocationsCreated prometheus.Counter
	persistFailures    *prometheus.CounterVec
	loadFailures       *prometheus.CounterVec
	sweepDuration      prometheus.Histogram
	authAttempts       *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		overdueTransitions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_overdue_total",
			Help:      "Allocations moved to overdue by the expiration sweep.",
		}),
		allocationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_created_total",
			Help:      "Allocations created.",
		}),
		persistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_persist_failures_total",
			Help:      "Failed writes of a collection to durable storage.",
		}, []string{"collection"}),
		loadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_load_failures_total",
			Help:      "Failed reads of a collection from durable storage.",
		}, []string{"collection"}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expiration_sweep_duration_seconds",
			Help:      "Duration of expiration sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) OverdueTransitions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.overdueTransitions.Add(float64(n))
}

func (m *Metrics) AllocationCreated() {
	if m == nil {
		return
	}
	m.allocationsCreated.Inc()
}

func (m *Metrics) PersistFailure(collection string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(collection).Inc()
}

func (m *Metrics) LoadFailure(collection string) {
	if m == nil {
		return
	}
	m.loadFailures.WithLabelValues(collection).Inc()
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *Metrics) AuthAttempt(result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(result).Inc()
}
