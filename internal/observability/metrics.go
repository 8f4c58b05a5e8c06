// Package observability holds the Prometheus metrics recorded during a conversion run.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catasto"

// Metrics holds the Prometheus counters and gauges for a conversion run.
// Each instance owns its registry, so the metrics of one run can be written
// to a node_exporter textfile without touching the global registry.
type Metrics struct {
	Registry *prometheus.Registry

	Regions  *prometheus.CounterVec // labels: status={succeeded,skipped,failed}
	Archives *prometheus.CounterVec // labels: status
	Files    *prometheus.CounterVec // labels: kind={ple,map}, status

	// Features counts rows by merge outcome.
	Features *prometheus.CounterVec // labels: kind, outcome={valid,repaired,dropped}

	LayerRows   *prometheus.GaugeVec // labels: layer; rows in the final package
	RunDuration prometheus.Gauge
}

// NewMetrics creates the run metrics and registers them with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Regions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_total",
			Help:      "Regions processed, by final status.",
		}, []string{"status"}),
		Archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Top-level archives processed, by status.",
		}, []string{"status"}),
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Extracted GML files merged, by kind and status.",
		}, []string{"kind", "status"}),
		Features: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_total",
			Help:      "Features seen by the merger, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		LayerRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layer_rows",
			Help:      "Rows written to each layer of the final package.",
		}, []string{"layer"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last conversion run.",
		}),
	}

	m.Registry.MustRegister(
		m.Regions,
		m.Archives,
		m.Files,
		m.Features,
		m.LayerRows,
		m.RunDuration,
	)
	return m
}

// WriteTextfile writes every metric in the Prometheus text format to path,
// atomically, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
