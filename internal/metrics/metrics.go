package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_archive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "car_archive_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "car_archive_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog client metrics
var (
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_archive_catalog_requests_total",
			Help: "Total number of catalog service requests",
		},
		[]string{"operation", "status"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "car_archive_catalog_request_duration_seconds",
			Help:    "Catalog request duration in seconds, retries included",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "car_archive_catalog_cache_hits_total",
			Help: "Page fetches served from the TTL cache",
		},
	)
)

// Preload metrics
var (
	PreloadWarmTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_archive_preload_warm_total",
			Help: "Image warm requests by direction and outcome",
		},
		[]string{"direction", "status"},
	)

	PreloadLedgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "car_archive_preload_ledger_entries",
			Help: "Entries in the most recently updated preload ledger",
		},
	)
)

// Gallery metrics
var (
	GalleriesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "car_archive_galleries_active",
			Help: "Gallery instances currently mounted",
		},
	)

	StalePageResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "car_archive_stale_page_responses_total",
			Help: "Page responses discarded because a newer page request superseded them",
		},
	)
)

// Transform tool metrics
var (
	TransformRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_archive_transform_runs_total",
			Help: "Native transform tool invocations by tool and outcome",
		},
		[]string{"tool", "status"},
	)

	TransformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "car_archive_transform_duration_seconds",
			Help:    "Native transform tool execution time in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)
)
