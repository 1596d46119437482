// Package reranker defines the pluggable rerank contract applied to
// fused candidates. Implementations live in the rerankers package.
package reranker

import (
	"context"

	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Strategy identifies a reranking algorithm.
type Strategy string

const (
	// StrategyHeuristic is a cheap deterministic function of already
	// available signals. No external calls, always succeeds.
	StrategyHeuristic Strategy = "heuristic"

	// StrategyCrossEncoder scores each (query, text) pair with a joint
	// relevance model. Expensive per candidate, applied to a bounded
	// top slice only.
	StrategyCrossEncoder Strategy = "cross-encoder"
)

// Reranker re-scores fused candidates against the query in place.
// Candidates whose score could not be recomputed keep their pre-rerank
// fused score. Relative order of ties must stay stable.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []*types.FusedCandidate) error

	// Strategy returns the algorithm tag.
	Strategy() Strategy
}
