package matrix

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the Prometheus metrics for the matrix builder.
type Metrics struct {
	buildDuration *prometheus.HistogramVec
	routes        *prometheus.GaugeVec
	snapshotBytes *prometheus.GaugeVec
	buildsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics for the matrix builder.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routematrix_build_duration_seconds",
			Help:    "Time taken to enumerate and persist a route matrix.",
			Buckets: prometheus.DefBuckets,
		}, []string{"chain", "kind"}),
		routes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "routematrix_routes",
			Help: "Number of routes in the last persisted matrix.",
		}, []string{"chain", "kind"}),
		snapshotBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "routematrix_snapshot_bytes",
			Help: "Encoded size of the last persisted matrix.",
		}, []string{"chain", "kind"}),
		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routematrix_builds_total",
			Help: "Total number of matrix builds, labeled by chain, kind and result.",
		}, []string{"chain", "kind", "result"}),
	}
	reg.MustRegister(m.buildDuration, m.routes, m.snapshotBytes, m.buildsTotal)
	return m
}
