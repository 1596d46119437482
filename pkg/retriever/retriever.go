// Package retriever defines the pluggable graph-retrieval contract.
// Implementations live in the retrievers package.
package retriever

import (
	"context"

	"github.com/andreas-roehler/hindsight/pkg/index"
)

// Strategy identifies a graph traversal algorithm.
type Strategy string

const (
	// StrategyBFS explores outward from the seeds in rounds,
	// accumulating additive activation along every traversed edge.
	// Favors short-path, broad coverage.
	StrategyBFS Strategy = "bfs"

	// StrategyPPR approximates personalized PageRank from the seed set.
	// Favors hub facts with many high-weight inbound paths.
	StrategyPPR Strategy = "ppr"
)

// Result is the outcome of one bounded traversal.
type Result struct {
	// Activations maps every reached fact ID to its activation score.
	// Nodes never reached are absent, not zero-scored.
	Activations map[string]float64

	// Depths records the traversal depth at which each node was first
	// reached, where available.
	Depths map[string]int

	// Visited is the number of distinct nodes activated during the
	// traversal, reported in the call trace as total_activated.
	Visited int
}

// GraphRetriever traverses the memory graph from a seed set, strictly
// bounded by the budget. An empty seed set returns an empty result and
// consumes no budget.
type GraphRetriever interface {
	// Traverse walks graph outward from seeds. budget upper-bounds the
	// traversal work; implementations clamp their own consumption and
	// never run unbounded.
	Traverse(ctx context.Context, graph index.MemoryGraph, seeds []string, budget int) (*Result, error)

	// Strategy returns the algorithm tag.
	Strategy() Strategy
}
