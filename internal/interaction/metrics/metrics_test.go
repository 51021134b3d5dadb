package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementAppended("client", "CREATED")
		m.IncrementFailed("client", "conflict")
		m.ObserveMutation("client", "CREATED", time.Millisecond)
		m.IncrementHistoryRead("client", true)
		m.IncrementCacheLookup("hit")
		m.AddOutboxPublished(3)
		m.IncrementOutboxFailure()
		m.IncrementTxRetry()
	})
}

func TestCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementAppended("client", "CREATED")
	m.IncrementAppended("client", "CREATED")
	m.IncrementHistoryRead("repair", false)
	m.AddOutboxPublished(3)
	m.IncrementTxRetry()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsAppended.WithLabelValues("client", "CREATED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryReads.WithLabelValues("repair", "hidden")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OutboxPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxRetries))
}
