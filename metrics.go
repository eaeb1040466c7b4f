package nearest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Index kinds used as the "index" label on every metric.
const (
	kindKDTree = "kdtree"
	kindLSH    = "lsh"
)

// Metrics holds the Prometheus collectors shared by the indexes built with
// WithMetrics. All methods are safe on a nil *Metrics and safe for concurrent
// use, so read-only queries may run in parallel while recording.
type Metrics struct {
	points     *prometheus.GaugeVec
	inserts    *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	queries    *prometheus.CounterVec
	examined   *prometheus.HistogramVec
}

// NewMetrics creates the index collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		points: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nearest_index_points",
				Help: "Number of points held by indexes",
			},
			[]string{"index"},
		),
		inserts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nearest_inserts_total",
				Help: "Total number of points stored by indexes",
			},
			[]string{"index"},
		),
		duplicates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nearest_duplicates_total",
				Help: "Total number of insertions dropped as exact duplicates",
			},
			[]string{"index"},
		),
		queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nearest_queries_total",
				Help: "Total number of nearest-point queries by outcome",
			},
			[]string{"index", "outcome"},
		),
		examined: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nearest_query_examined_points",
				Help: "Points whose distance was computed per query",
				// 1 .. ~260k
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"index"},
		),
	}
}

func (m *Metrics) observeInsert(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.inserts.WithLabelValues(kind).Add(float64(n))
	m.points.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) observeDuplicate(kind string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeQuery(kind string, found bool, examined int) {
	if m == nil {
		return
	}
	outcome := "found"
	if !found {
		outcome = "empty"
	}
	m.queries.WithLabelValues(kind, outcome).Inc()
	m.examined.WithLabelValues(kind).Observe(float64(examined))
}
