package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OverdueTransitions(2)
	m.OverdueTransitions(0)
	m.PersistFailure("allocations")
	m.AuthAttempt("denied")
	m.AuthAttempt("denied")
	m.ObserveSweep(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.overdueTransitions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures.WithLabelValues("allocations")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authAttempts.WithLabelValues("denied")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.sweepDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OverdueTransitions(1)
		m.AllocationCreated()
		m.PersistFailure("labs")
		m.LoadFailure("labs")
		m.ObserveSweep(time.Second)
		m.AuthAttempt("admitted")
	})
}
