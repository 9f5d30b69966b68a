// Package metrics exposes Prometheus instrumentation for Verdict.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "verdict"

// Collector owns the Prometheus registry and every metric the service
// records. All components record through it so the registry stays the
// single source of exposition.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	evaluationsTotal *prometheus.CounterVec
	extractionsTotal *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	reviewsQueued    prometheus.Counter
}

// NewCollector creates a collector backed by the given registry. A nil
// registry gets a fresh one, keeping the default global registry clean.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"route", "method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of refund evaluations by action",
			},
			[]string{"action"},
		),

		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signal_extractions_total",
				Help:      "Total number of text signal extractions by source",
			},
			[]string{"source"},
		),

		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signal_cache_hits_total",
				Help:      "Total number of signal cache hits",
			},
		),

		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signal_cache_misses_total",
				Help:      "Total number of signal cache misses",
			},
		),

		reviewsQueued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_queued_total",
				Help:      "Total number of decisions queued for manual review",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.evaluationsTotal,
		c.extractionsTotal,
		c.cacheHits,
		c.cacheMisses,
		c.reviewsQueued,
	)

	return c
}

// RecordRequest records a completed HTTP request.
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordEvaluation records a scored refund decision.
func (c *Collector) RecordEvaluation(action string) {
	c.evaluationsTotal.WithLabelValues(action).Inc()
}

// RecordExtraction records a text signal extraction by its source
// (extractor, cache, fallback, none).
func (c *Collector) RecordExtraction(source string) {
	c.extractionsTotal.WithLabelValues(source).Inc()
}

// RecordCacheHit records a signal cache hit.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss records a signal cache miss.
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordReviewQueued records a decision entering the manual review queue.
func (c *Collector) RecordReviewQueued() {
	c.reviewsQueued.Inc()
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the exposition handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
