package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localcut_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Composition Metrics
	CompositionsBuiltTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localcut_compositions_built_total",
			Help: "Total number of per-frame compositions built",
		},
	)

	CompositionBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "localcut_composition_build_seconds",
			Help:    "Composition build latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	CompositionLayers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "localcut_composition_layers",
			Help:    "Number of visual layers per composition",
			Buckets: prometheus.LinearBuckets(0, 1, 16),
		},
	)

	// Asset Metrics
	AssetsRegisteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localcut_assets_registered_total",
			Help: "Total number of registered media assets",
		},
		[]string{"type"},
	)

	SourceLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localcut_source_loads_total",
			Help: "Total number of decoder source loads",
		},
		[]string{"result"},
	)

	LoadedSources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localcut_loaded_sources",
			Help: "Number of decoder source handles currently cached",
		},
	)

	// Playback Metrics
	SeeksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localcut_seeks_total",
			Help: "Total number of playhead seeks",
		},
	)

	DecoderResyncsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localcut_decoder_resyncs_total",
			Help: "Total number of secondary decoder resynchronizations",
		},
	)

	TrimBoundaryStopsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localcut_trim_boundary_stops_total",
			Help: "Total number of pause-and-snap events at a trim end boundary",
		},
	)

	// Export Metrics
	ExportJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localcut_export_jobs_total",
			Help: "Total number of export jobs by final status",
		},
		[]string{"status"},
	)

	ExportQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localcut_export_queue_depth",
			Help: "Number of export jobs waiting in queue",
		},
	)

	ExportJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localcut_export_jobs_in_progress",
			Help: "Number of export jobs currently converting",
		},
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "localcut_export_duration_seconds",
			Help:    "Export job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)
