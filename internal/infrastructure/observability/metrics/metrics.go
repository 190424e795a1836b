// Package metrics exposes Prometheus collectors for the render cache, the
// invalidation queue and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Render cache
	RenderCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faqjsonld_render_cache_hits_total",
		Help: "Render cache lookups served from memory, including empty markers",
	})

	RenderCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faqjsonld_render_cache_misses_total",
		Help: "Render cache lookups that required resolution",
	})

	RenderCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "faqjsonld_render_cache_entries",
		Help: "Entries currently held in the render cache",
	})

	RenderCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faqjsonld_render_cache_evictions_total",
			Help: "Render cache entries removed, by reason",
		},
		[]string{"reason"}, // invalidate, purge, expired
	)

	RenderResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faqjsonld_render_resolutions_total",
			Help: "Mapping store resolutions performed on cache miss",
		},
		[]string{"result"}, // match, empty, error
	)

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "faqjsonld_render_resolution_duration_seconds",
		Help:    "Time spent resolving and rendering on cache miss",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})

	// Invalidation queue
	QueueEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faqjsonld_queue_enqueued_total",
		Help: "Content IDs newly added to the invalidation queue",
	})

	QueueDrained = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faqjsonld_queue_drained_total",
			Help: "Content IDs popped and invalidated",
		},
		[]string{"trigger"},
	)

	QueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "faqjsonld_queue_length",
		Help: "Pending content IDs in the invalidation queue",
	})

	QueuePruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faqjsonld_queue_pruned_total",
		Help: "Queue entries dropped after the retention window",
	})

	QueueEnqueueFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faqjsonld_queue_enqueue_failures_total",
		Help: "Enqueue attempts that failed and were logged instead of surfaced",
	})

	DrainDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "faqjsonld_queue_drain_duration_seconds",
			Help:    "Duration of one queue drain",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"trigger"},
	)

	CachePurges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faqjsonld_render_cache_purges_total",
			Help: "Full render cache purges",
		},
		[]string{"cause"}, // global, operator
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faqjsonld_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "faqjsonld_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
