// Package index declares the read-only contracts the retrieval core
// consumes from its collaborators: the semantic and lexical indexes, the
// temporal index, the memory graph, the fact store, and the
// cross-encoder scoring backend. The core never mutates anything behind
// these interfaces; all of them must be safe for concurrent use.
package index

import (
	"context"

	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Hit is a single ranked entry returned by an index lookup.
type Hit struct {
	FactID string
	Score  float64
}

// SemanticIndex performs embedding-similarity search over stored facts.
type SemanticIndex interface {
	// Search returns up to k hits ranked by similarity, scoped to the
	// agent and the given fact types (empty factTypes means all).
	Search(ctx context.Context, agentID, query string, factTypes []types.FactType, k int) ([]Hit, error)
}

// LexicalIndex performs BM25 keyword search over stored facts.
type LexicalIndex interface {
	Search(ctx context.Context, agentID, query string, factTypes []types.FactType, k int) ([]Hit, error)
}

// TemporalIndex returns the most recent facts by event time.
type TemporalIndex interface {
	// Recent returns up to k hits ordered by event time descending. The
	// score is a recency score, higher for newer facts.
	Recent(ctx context.Context, agentID string, factTypes []types.FactType, k int) ([]Hit, error)
}

// Edge is a weighted directed association between two facts.
type Edge struct {
	FactID string
	Weight float64 // association strength in [0,1]
}

// MemoryGraph is the read-only association graph over fact identifiers.
// Edges encode semantic, temporal-adjacency, or causal links.
type MemoryGraph interface {
	// Neighbors returns the outgoing edges of a node.
	Neighbors(ctx context.Context, factID string) ([]Edge, error)

	// EdgeWeight returns the weight of the edge a→b, or 0 if absent.
	EdgeWeight(ctx context.Context, a, b string) (float64, error)
}

// FactStore resolves fact identifiers to read-only fact records. The
// core uses it to type-filter graph hits and to attach texts to results.
type FactStore interface {
	// Facts returns the facts for the given IDs. Unknown IDs are
	// silently omitted; order is not guaranteed.
	Facts(ctx context.Context, ids []string) ([]*types.Fact, error)

	// Agents lists the distinct agent IDs present in the store.
	Agents(ctx context.Context) ([]string, error)
}

// ScoringBackend scores (query, candidate-text) pairs with a joint
// relevance model. A call covers one batch and may fail or time out as a
// whole; callers degrade per batch.
type ScoringBackend interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}
