package vectree

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Compile-time check to ensure the collector satisfies MetricsCollector.
var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)

// PrometheusMetricsCollector exports operation counts and latencies as
// Prometheus metrics.
type PrometheusMetricsCollector struct {
	ops       *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latencies *prometheus.HistogramVec
}

// NewPrometheusMetricsCollector creates a collector and registers its
// metrics with reg. Pass prometheus.DefaultRegisterer to use the global
// registry.
func NewPrometheusMetricsCollector(reg prometheus.Registerer, namespace string) (*PrometheusMetricsCollector, error) {
	c := &PrometheusMetricsCollector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vectree",
			Name:      "operations_total",
			Help:      "Total number of library operations.",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vectree",
			Name:      "operation_errors_total",
			Help:      "Total number of failed library operations.",
		}, []string{"op"}),
		latencies: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "vectree",
			Name:      "operation_duration_seconds",
			Help:      "Library operation latency.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op"}),
	}

	for _, col := range []prometheus.Collector{c.ops, c.errors, c.latencies} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *PrometheusMetricsCollector) record(op string, duration time.Duration, err error) {
	c.ops.WithLabelValues(op).Inc()
	c.latencies.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		c.errors.WithLabelValues(op).Inc()
	}
}

// RecordAdd implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordAdd(duration time.Duration, err error) {
	c.record("add", duration, err)
}

// RecordRemove implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordRemove(duration time.Duration, err error) {
	c.record("remove", duration, err)
}

// RecordSearch implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	c.record("search", duration, err)
}

// RecordRebuild implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordRebuild(algorithm string, duration time.Duration, err error) {
	c.record("rebuild", duration, err)
}
