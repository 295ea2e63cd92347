// Package metrics provides Prometheus instrumentation for the catalog
// service. All record helpers are nil-safe so components under test can
// run without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Coordinator operations
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheErrors prometheus.Counter

	// Replication
	ReplicationOps  *prometheus.CounterVec
	QueueDepth      prometheus.GaugeFunc
	ConsistencyRuns *prometheus.CounterVec
}

// New creates and registers all catalog metrics. queueDepth feeds the
// queue-depth gauge on scrape.
func New(queueDepth func() int64) *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_operations_total",
				Help: "Total number of coordinator operations processed",
			},
			[]string{"operation", "mode"},
		),

		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_operation_duration_seconds",
				Help:    "Duration of coordinator operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		OperationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_operation_errors_total",
				Help: "Total number of failed coordinator operations",
			},
			[]string{"operation", "error_type"},
		),

		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_cache_hits_total",
				Help: "Total number of cache hits",
			},
		),

		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_cache_misses_total",
				Help: "Total number of cache misses",
			},
		),

		CacheErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_cache_errors_total",
				Help: "Total number of cache errors absorbed as soft failures",
			},
		),

		ReplicationOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_replication_operations_total",
				Help: "Total number of Secondary replication operations",
			},
			[]string{"kind", "path", "status"},
		),

		QueueDepth: promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "catalog_replication_queue_depth",
				Help: "Current number of pending async replication operations",
			},
			func() float64 { return float64(queueDepth()) },
		),

		ConsistencyRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_consistency_checks_total",
				Help: "Total number of consistency audits",
			},
			[]string{"result"},
		),
	}
}

// RecordOperation records a completed coordinator operation.
func (m *Metrics) RecordOperation(operation, mode string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, mode).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError records a failed coordinator operation.
func (m *Metrics) RecordError(operation, errorType string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// RecordCacheError records an absorbed cache error.
func (m *Metrics) RecordCacheError() {
	if m == nil {
		return
	}
	m.CacheErrors.Inc()
}

// RecordReplication records a Secondary replication attempt.
func (m *Metrics) RecordReplication(kind, path, status string) {
	if m == nil {
		return
	}
	m.ReplicationOps.WithLabelValues(kind, path, status).Inc()
}

// RecordConsistencyCheck records an audit run.
func (m *Metrics) RecordConsistencyCheck(result string) {
	if m == nil {
		return
	}
	m.ConsistencyRuns.WithLabelValues(result).Inc()
}
