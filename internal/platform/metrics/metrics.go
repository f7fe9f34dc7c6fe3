// Package metrics holds the Prometheus collectors of a node. Every method
// is safe to call on a nil *Metrics so storage code can run without them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quorumkv"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	operations         *prometheus.CounterVec
	replicaFailures    *prometheus.CounterVec
	flushes            *prometheus.CounterVec
	flushDuration      prometheus.Histogram
	compactionDuration prometheus.Histogram
	diskTables         prometheus.Gauge
	pendingTables      prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replicated_operations_total",
			Help:      "Coordinated operations by method and final status.",
		}, []string{"method", "status"}),
		replicaFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replica_call_failures_total",
			Help:      "Failed or timed out calls to a replica.",
		}, []string{"node"}),
		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "In-memory table flushes by result.",
		}, []string{"result"}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time spent writing an in-memory table to disk.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		compactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compaction_duration_seconds",
			Help:      "Time spent compacting on-disk tables.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		diskTables: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_tables",
			Help:      "Number of live on-disk tables.",
		}),
		pendingTables: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_tables",
			Help:      "In-memory tables waiting to be flushed.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveOperation(method, status string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(method, status).Inc()
}

func (m *Metrics) ReplicaFailed(node string) {
	if m == nil {
		return
	}
	m.replicaFailures.WithLabelValues(node).Inc()
}

func (m *Metrics) ObserveFlush(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.flushes.WithLabelValues(result).Inc()
	m.flushDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCompaction(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.compactionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SetDiskTables(n int) {
	if m == nil {
		return
	}
	m.diskTables.Set(float64(n))
}

func (m *Metrics) SetPendingTables(n int) {
	if m == nil {
		return
	}
	m.pendingTables.Set(float64(n))
}
