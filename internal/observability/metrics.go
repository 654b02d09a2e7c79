// Package observability provides logging, metrics, and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commune_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commune_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedPagesServed counts served feed pages by sort mode and the
	// partition of the boundary item ("followed", "backfill", "end").
	FeedPagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commune_feed_pages_served_total",
		Help: "Total number of feed pages served by sort mode and boundary partition",
	}, []string{"sort", "partition"})

	// FeedInvalidCursors counts rejected pagination tokens.
	FeedInvalidCursors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commune_feed_invalid_cursors_total",
		Help: "Total number of feed requests rejected for an invalid cursor",
	})

	// FeedEnrichmentFailures counts degraded enrichment lookups by kind.
	// A failed batch leaves its field unset on the page instead of failing
	// the request; this counter is how that degradation stays visible.
	FeedEnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commune_feed_enrichment_failures_total",
		Help: "Total number of failed viewer-enrichment batch lookups by kind",
	}, []string{"lookup"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
