package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "barometer"

// Metrics holds the query instruments. Each instance owns its registry so
// tests can build routers side by side.
type Metrics struct {
	registry *prometheus.Registry

	queries  *prometheus.CounterVec
	outliers *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the instruments. snapshotSize reports the number of
// vacancies currently served.
func NewMetrics(snapshotSize func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Statistics queries by kind and result.",
		}, []string{"kind", "result"}),
		outliers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outliers_filtered_total",
			Help:      "Vacancies dropped as salary outliers.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent computing statistics queries.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.queries,
		m.outliers,
		m.duration,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_records",
			Help:      "Vacancies in the loaded snapshot.",
		}, snapshotSize),
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) observe(kind, result string, filtered int, started time.Time) {
	m.queries.WithLabelValues(kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	if filtered > 0 {
		m.outliers.WithLabelValues(kind).Add(float64(filtered))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
