// Package telemetry counts what surface builds do, for export as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"apifp/internal/surface"
)

// Metrics holds the counters of one process. Every Metrics owns its registry
// so concurrent builds in tests never share state.
type Metrics struct {
	registry *prometheus.Registry

	ElementsVisited *prometheus.CounterVec
	Rendered        *prometheus.CounterVec
	Skipped         *prometheus.CounterVec
	Synthetic       *prometheus.CounterVec
	Duplicates      *prometheus.CounterVec
	Unsupported     *prometheus.CounterVec
	SurfaceEntries  *prometheus.GaugeVec
	BuildDuration   *prometheus.HistogramVec
}

// New creates metrics registered on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	backend := []string{"backend"}
	return &Metrics{
		registry: reg,
		ElementsVisited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "apifp_elements_visited_total",
			Help: "Elements reported by backends.",
		}, backend),
		Rendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "apifp_elements_rendered_total",
			Help: "Elements that rendered to an identifier.",
		}, backend),
		Skipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "apifp_elements_skipped_total",
			Help: "Elements without an identifier.",
		}, backend),
		Synthetic: f.NewCounterVec(prometheus.CounterOpts{
			Name: "apifp_elements_synthetic_total",
			Help: "Compiler-injected elements excluded from surfaces.",
		}, backend),
		Duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "apifp_elements_duplicate_total",
			Help: "Elements whose identifier was already in the surface.",
		}, backend),
		Unsupported: f.NewCounterVec(prometheus.CounterOpts{
			Name: "apifp_elements_unsupported_total",
			Help: "Elements whose shape the identifier grammar cannot render.",
		}, backend),
		SurfaceEntries: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apifp_surface_entries",
			Help: "Entries in the most recent surface built.",
		}, backend),
		BuildDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apifp_build_seconds",
			Help:    "Time spent building a surface.",
			Buckets: prometheus.DefBuckets,
		}, backend),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBuild records the outcome of one surface build
func (m *Metrics) ObserveBuild(backend string, visited, unsupported int, stats surface.Stats, entries int, elapsed time.Duration) {
	m.ElementsVisited.WithLabelValues(backend).Add(float64(visited))
	m.Rendered.WithLabelValues(backend).Add(float64(stats.Rendered))
	m.Skipped.WithLabelValues(backend).Add(float64(stats.Skipped))
	m.Synthetic.WithLabelValues(backend).Add(float64(stats.Synthetic))
	m.Duplicates.WithLabelValues(backend).Add(float64(stats.Duplicates))
	m.Unsupported.WithLabelValues(backend).Add(float64(unsupported))
	m.SurfaceEntries.WithLabelValues(backend).Set(float64(entries))
	m.BuildDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// WriteTextfile writes every metric to path in the node-exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
