// Package metrics provides Prometheus metrics collection for the
// retrieval core. It tracks retrieve calls, per-strategy latencies and
// degradations, graph activation volume, and rerank latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "hindsight"
)

// LatencyBuckets defines histogram buckets for latency metrics (in seconds).
var LatencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
	0.25, 0.5, 1.0, 2.0, 3.0, 5.0, 10.0, 30.0,
}

// =============================================================================
// Retrieve Call Metrics
// =============================================================================

var (
	// RetrieveTotal counts retrieve calls by outcome.
	RetrieveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieve_total",
			Help:      "Total number of retrieve calls",
		},
		[]string{"status"},
	)

	// RetrieveLatency tracks end-to-end retrieve latency.
	RetrieveLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieve_latency_seconds",
			Help:      "End-to-end retrieve call latency in seconds",
			Buckets:   LatencyBuckets,
		},
	)

	// ResultsReturned tracks the number of results per call.
	ResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results_returned",
			Help:      "Number of results returned per retrieve call",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

// =============================================================================
// Strategy Metrics
// =============================================================================

var (
	// StrategyLatency tracks per-strategy retrieval latency.
	StrategyLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "strategy_latency_seconds",
			Help:      "Per-strategy retrieval latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"strategy"},
	)

	// StrategyCandidates tracks candidate counts per strategy before fusion.
	StrategyCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "strategy_candidates",
			Help:      "Candidates produced per strategy before fusion",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
		},
		[]string{"strategy"},
	)

	// StrategyDegraded counts strategies that contributed nothing to a call.
	StrategyDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_degraded_total",
			Help:      "Total number of degraded strategy executions",
		},
		[]string{"strategy", "reason"},
	)
)

// =============================================================================
// Graph and Rerank Metrics
// =============================================================================

var (
	// GraphActivated tracks graph nodes activated per traversal.
	GraphActivated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_activated_nodes",
			Help:      "Graph nodes activated per traversal",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// RerankLatency tracks rerank stage latency by strategy.
	RerankLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rerank_latency_seconds",
			Help:      "Rerank stage latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"strategy"},
	)

	// RerankBatchFailures counts cross-encoder batches that kept their
	// pre-rerank scores.
	RerankBatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_batch_failures_total",
			Help:      "Total cross-encoder batches that failed and kept fused scores",
		},
	)
)
