// Package metric holds the Prometheus collectors for the extraction
// pipeline.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	PhaseFailures    *prometheus.CounterVec
	DownloadedBytes  prometheus.Counter
	PipelineDuration prometheus.Histogram
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Extraction requests by terminal outcome.",
		}, []string{"outcome"}),
		PhaseFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_phase_failures_total",
			Help: "Failed requests by the phase they failed in.",
		}, []string{"phase"}),
		DownloadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_downloaded_bytes_total",
			Help: "Bytes fetched from video sources.",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Wall time of a full request, resolve to delivery.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}
