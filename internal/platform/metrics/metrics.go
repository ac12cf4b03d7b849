// Package metrics exposes Prometheus collectors for engine queries and rollups
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine metrics; a nil *Collector records nothing
type Collector struct {
	reg prometheus.Gatherer

	queryDuration *prometheus.HistogramVec
	partitions    prometheus.Histogram
	rollupParents *prometheus.CounterVec
	rollupWrites  *prometheus.CounterVec
}

// New registers the collectors with reg; a nil reg uses a private registry
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		reg: reg,
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insightsdb_query_duration_seconds",
			Help:    "Engine query latency by entity kind and operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind", "op"}),
		partitions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insightsdb_query_partitions",
			Help:    "Partitions produced per aggregate query before paging",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		rollupParents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insightsdb_rollup_parents_total",
			Help: "Parents read by the rollup aggregator",
		}, []string{"integration"}),
		rollupWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insightsdb_rollup_writes_total",
			Help: "Parents whose rolled up value changed and was written",
		}, []string{"integration"}),
	}
	reg.MustRegister(c.queryDuration, c.partitions, c.rollupParents, c.rollupWrites)
	return c
}

// ObserveQuery records the latency of one engine operation since start
func (c *Collector) ObserveQuery(kind, op string, start time.Time) {
	if c == nil {
		return
	}
	c.queryDuration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
}

// ObservePartitions records the partition count of an aggregate
func (c *Collector) ObservePartitions(n int) {
	if c == nil {
		return
	}
	c.partitions.Observe(float64(n))
}

// AddRollup counts parents read and written for an integration
func (c *Collector) AddRollup(integration string, read, written int) {
	if c == nil {
		return
	}
	c.rollupParents.WithLabelValues(integration).Add(float64(read))
	c.rollupWrites.WithLabelValues(integration).Add(float64(written))
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
