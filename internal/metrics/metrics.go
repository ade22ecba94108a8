// Package metrics defines Prometheus counters for dataset operations.
package metrics

import (
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns a private registry so runs can be dumped as a node exporter textfile
type Metrics struct {
	Registry *prometheus.Registry

	ImagesImported *prometheus.CounterVec
	ImagesExported *prometheus.CounterVec
	ImagesSkipped  *prometheus.CounterVec
	Operations     *prometheus.CounterVec
}

// New creates the counters on a private registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ImagesImported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datasetkit_images_imported_total",
				Help: "Images written to a dataset by an importer",
			},
			[]string{"dataset"},
		),
		ImagesExported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datasetkit_images_exported_total",
				Help: "Images copied into an export",
			},
			[]string{"dataset", "format"},
		),
		ImagesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datasetkit_images_skipped_total",
				Help: "Images left out of an export",
			},
			[]string{"dataset", "format"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datasetkit_operations_total",
				Help: "Finished dataset operations by event",
			},
			[]string{"dataset", "event"},
		),
	}
	m.Registry.MustRegister(m.ImagesImported, m.ImagesExported, m.ImagesSkipped, m.Operations)
	return m
}

// WriteTextfile dumps the registry in the Prometheus text format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) Key() string {
	return "metrics"
}

// OnEvent makes Metrics a hook callback
func (m *Metrics) OnEvent(event hook.Event, p hook.Payload) {
	switch event {
	case hook.ImageAdded:
		m.ImagesImported.WithLabelValues(p.Dataset).Inc()
	case hook.ImageExported:
		m.ImagesExported.WithLabelValues(p.Dataset, p.Format).Inc()
	case hook.ImageSkipped:
		m.ImagesSkipped.WithLabelValues(p.Dataset, p.Format).Inc()
	case hook.ImportEnd, hook.SplitEnd, hook.ExportEnd:
		m.Operations.WithLabelValues(p.Dataset, string(event)).Inc()
	}
}

var _ hook.Handler = (*Metrics)(nil)
