// Package metrics provides Prometheus metrics for the HTTP server and the
// knowledge graph:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - http_response_size_bytes: Histogram of response bodies by path
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//   - knowledge_graph_nodes / knowledge_graph_edges: Gauges of the graph size
//   - knowledge_graph_updates_total: Counter of dynamic updates by outcome
//   - knowledge_graph_analytics_refresh_seconds: Gauge of the last refresh time
//   - query_enhancements_total: Counter of enhanced queries by strategy
//   - relevance_scores: Histogram of composite relevance scores
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/giygas/pharmasearch/entities"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	HTTPResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response body size",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8),
		},
		[]string{"path"},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	GraphNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledge_graph_nodes",
			Help: "Number of nodes in the knowledge graph",
		},
	)

	GraphEdges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledge_graph_edges",
			Help: "Number of edges in the knowledge graph",
		},
	)

	GraphUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_graph_updates_total",
			Help: "Dynamic updates by outcome",
		},
		[]string{"outcome"},
	)

	AnalyticsRefreshSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledge_graph_analytics_refresh_seconds",
			Help: "Duration of the last analytics refresh",
		},
	)

	QueryEnhancementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_enhancements_total",
			Help: "Enhanced queries by search strategy",
		},
		[]string{"strategy"},
	)

	RelevanceScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relevance_scores",
			Help:    "Distribution of composite relevance scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(HTTPResponseSize)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(GraphNodes)
	prometheus.MustRegister(GraphEdges)
	prometheus.MustRegister(GraphUpdatesTotal)
	prometheus.MustRegister(AnalyticsRefreshSeconds)
	prometheus.MustRegister(QueryEnhancementsTotal)
	prometheus.MustRegister(RelevanceScores)
}

// SetGraphSize publishes the node and edge counts
func SetGraphSize(nodes, edges int) {
	GraphNodes.Set(float64(nodes))
	GraphEdges.Set(float64(edges))
}

// RecordUpdate counts one dynamic update
func RecordUpdate(outcome entities.UpdateOutcome) {
	GraphUpdatesTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordUpdateError counts a dynamic update rejected as invalid
func RecordUpdateError() {
	GraphUpdatesTotal.WithLabelValues("invalid").Inc()
}

// RecordEnhancement counts one enhanced query
func RecordEnhancement(strategy entities.SearchStrategy) {
	QueryEnhancementsTotal.WithLabelValues(string(strategy)).Inc()
}

// ObserveScores records every score of a ranked result
func ObserveScores(scored []entities.ScoredRecord) {
	for _, s := range scored {
		RelevanceScores.Observe(float64(s.RelevanceScore.Score))
	}
}
