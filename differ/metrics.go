package differ

import (
	"github.com/prometheus/client_golang/prometheus"
)

// --- Metrics ---

// Metrics holds all the Prometheus metrics for the differ.
type Metrics struct {
	diffDuration *prometheus.HistogramVec
	routesTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics for the differ.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		diffDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routematrix_diff_duration_seconds",
			Help:    "Time taken to compare two route matrices.",
			Buckets: prometheus.DefBuckets,
		}, []string{"chain"}),
		routesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routematrix_diff_routes_total",
			Help: "Total number of routes seen by the differ, labeled by chain and change.",
		}, []string{"chain", "change"}),
	}
	reg.MustRegister(m.diffDuration, m.routesTotal)
	return m
}
