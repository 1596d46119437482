// Package hindsight provides the retrieval core of a temporal,
// agent-scoped memory store as a Go library. Given a query and an agent
// identity it finds the most relevant stored facts, blending semantic,
// lexical, graph-associative, and temporal relevance under a caller
// supplied thinking budget.
//
// Basic usage:
//
//	store := hindsight.NewInMemoryStore()
//	store.PutFact(&hindsight.Fact{
//	    AgentID: "assistant-1",
//	    Type:    hindsight.FactWorld,
//	    Text:    "the deploy pipeline runs nightly at 02:00 UTC",
//	})
//
//	client, err := hindsight.New(hindsight.WithInMemoryStore(store))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, trace, err := client.Retrieve(ctx, hindsight.Query{
//	    AgentID:    "assistant-1",
//	    Text:       "when does the deploy pipeline run",
//	    Budget:     100,
//	    MaxResults: 5,
//	    WantTrace:  true,
//	})
package hindsight

import (
	"github.com/andreas-roehler/hindsight/internal/index/inmem"
	"github.com/andreas-roehler/hindsight/pkg/errors"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Version is the current version of hindsight.
const Version = "0.1.0"

// Re-export the core data model for convenience, so callers use
// hindsight.Fact instead of types.Fact.
type (
	// Fact is an atomic stored memory unit.
	Fact = types.Fact

	// FactType classifies a stored fact.
	FactType = types.FactType

	// SearchResult is a single ranked retrieval result.
	SearchResult = types.SearchResult

	// Trace is the per-call diagnostic record.
	Trace = types.Trace

	// DegradedStrategy records a strategy that contributed nothing.
	DegradedStrategy = types.DegradedStrategy

	// RetrievalError is the structured error type for retrieval failures.
	RetrievalError = errors.RetrievalError

	// Store is the in-memory fact store returned by NewInMemoryStore.
	Store = inmem.Store
)

// Fact type values.
const (
	FactWorld   = types.FactWorld
	FactAgent   = types.FactAgent
	FactOpinion = types.FactOpinion
)

// Graph retrieval strategies.
const (
	GraphBFS = retriever.StrategyBFS
	GraphPPR = retriever.StrategyPPR
)

// Rerank strategies.
const (
	RerankHeuristic    = reranker.StrategyHeuristic
	RerankCrossEncoder = reranker.StrategyCrossEncoder
)

// NewInMemoryStore creates an in-memory fact store that backs every
// collaborator contract: semantic, lexical, and temporal indexes, the
// memory graph, and the fact store. Suitable for local mode and tests.
func NewInMemoryStore() *inmem.Store {
	return inmem.NewStore()
}

// IsTotalFailure reports whether err means every retrieval strategy
// failed, as opposed to "no relevant memories".
func IsTotalFailure(err error) bool {
	return errors.IsTotalFailure(err)
}

// IsValidation reports whether err is a caller-input validation error.
func IsValidation(err error) bool {
	return errors.IsValidation(err)
}
