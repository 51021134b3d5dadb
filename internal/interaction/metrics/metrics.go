package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for change tracking. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	// Records appended by entity type and kind
	RecordsAppended *prometheus.CounterVec

	// Mutations rolled back, by entity type and error code
	MutationsFailed *prometheus.CounterVec

	// End-to-end mutation latency including the transaction
	MutationLatency *prometheus.HistogramVec

	// History reads by outcome: served or hidden
	HistoryReads *prometheus.CounterVec

	// History cache lookups by result: hit, miss or error
	CacheLookups *prometheus.CounterVec

	// Outbox rows published and publish failures
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter

	// Transactions retried after a serialization failure or deadlock
	TxRetries prometheus.Counter
}

// New registers the metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsAppended: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mxt_interactions_appended_total",
			Help: "Interaction records appended by entity type and kind",
		}, []string{"entity_type", "kind"}),

		MutationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mxt_tracked_mutations_failed_total",
			Help: "Tracked mutations rolled back by entity type and error code",
		}, []string{"entity_type", "code"}),

		MutationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mxt_tracked_mutation_duration_seconds",
			Help:    "Duration of tracked mutations including diff, record append and commit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"entity_type", "kind"}),

		HistoryReads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mxt_history_reads_total",
			Help: "History reads by entity type and outcome",
		}, []string{"entity_type", "outcome"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mxt_history_cache_lookups_total",
			Help: "History cache lookups by result",
		}, []string{"result"}),

		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "mxt_interaction_outbox_published_total",
			Help: "Outbox rows published to the message broker",
		}),

		OutboxFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "mxt_interaction_outbox_failures_total",
			Help: "Outbox publish batches that failed",
		}),

		TxRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "mxt_tx_retries_total",
			Help: "Transactions retried after a serialization failure or deadlock",
		}),
	}
}

// IncrementAppended records one appended interaction.
func (m *Metrics) IncrementAppended(entityType, kind string) {
	if m != nil {
		m.RecordsAppended.WithLabelValues(entityType, kind).Inc()
	}
}

// IncrementFailed records one rolled back mutation.
func (m *Metrics) IncrementFailed(entityType, code string) {
	if m != nil {
		m.MutationsFailed.WithLabelValues(entityType, code).Inc()
	}
}

// ObserveMutation records the latency of one tracked mutation.
func (m *Metrics) ObserveMutation(entityType, kind string, d time.Duration) {
	if m != nil {
		m.MutationLatency.WithLabelValues(entityType, kind).Observe(d.Seconds())
	}
}

// IncrementHistoryRead records one history read.
func (m *Metrics) IncrementHistoryRead(entityType string, served bool) {
	if m == nil {
		return
	}
	outcome := "hidden"
	if served {
		outcome = "served"
	}
	m.HistoryReads.WithLabelValues(entityType, outcome).Inc()
}

// IncrementCacheLookup records a cache lookup result: hit, miss, error or
// bypass.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// AddOutboxPublished records n published outbox rows.
func (m *Metrics) AddOutboxPublished(n int) {
	if m != nil {
		m.OutboxPublished.Add(float64(n))
	}
}

// IncrementOutboxFailure records a failed publish batch.
func (m *Metrics) IncrementOutboxFailure() {
	if m != nil {
		m.OutboxFailures.Inc()
	}
}

// IncrementTxRetry records one retried transaction.
func (m *Metrics) IncrementTxRetry() {
	if m != nil {
		m.TxRetries.Inc()
	}
}
