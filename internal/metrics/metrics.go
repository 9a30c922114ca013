package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eclipsepath",
		Subsystem: "extract",
		Name:      "files_total",
		Help:      "Container files processed, by outcome",
	}, []string{"outcome"})

	ZonesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eclipsepath",
		Subsystem: "extract",
		Name:      "zones_total",
		Help:      "Zone polygons extracted",
	})

	SegmentsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eclipsepath",
		Subsystem: "extract",
		Name:      "center_line_segments_total",
		Help:      "Center line segments emitted after dateline splitting",
	})

	ExtractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eclipsepath",
		Subsystem: "extract",
		Name:      "file_duration_seconds",
		Help:      "Time to unpack, parse and segment one file",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	BatchesQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eclipsepath",
		Subsystem: "batch",
		Name:      "queue_depth",
		Help:      "Batch jobs waiting for a worker",
	})
)

// Outcome labels for FilesProcessed.
const (
	OutcomeOK        = "ok"
	OutcomeContainer = "container_error"
	OutcomeGeometry  = "geometry_error"
	OutcomeMarkup    = "markup_error"
	OutcomeTimeout   = "timeout"
	OutcomeIO        = "io_error"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
