package retrieval

import (
	"sync"
	"sync/atomic"

	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
	"github.com/andreas-roehler/hindsight/rerankers"
	"github.com/andreas-roehler/hindsight/retrievers"
)

// Registry holds the process-wide default graph retriever and reranker.
// Defaults are constructed lazily on first access and replaced atomically
// by the setters. Callers capture a snapshot at call entry, so a swap
// never changes the strategy of an in-flight call.
type Registry struct {
	mu     sync.Mutex
	graph  atomic.Pointer[retriever.GraphRetriever]
	rerank atomic.Pointer[reranker.Reranker]
}

// NewRegistry returns an empty registry. Defaults materialize on first
// access: BFS for graph traversal, the heuristic reranker for reranking.
func NewRegistry() *Registry {
	return &Registry{}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// GraphRetriever returns the current default graph retriever,
// constructing the BFS default on first access.
func (r *Registry) GraphRetriever() retriever.GraphRetriever {
	if p := r.graph.Load(); p != nil {
		return *p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.graph.Load(); p != nil {
		return *p
	}
	gr := retriever.GraphRetriever(retrievers.NewBFS())
	r.graph.Store(&gr)
	return gr
}

// SetGraphRetriever replaces the default graph retriever for all
// subsequent calls that do not pass an explicit override. It takes the
// lazy-init lock so a concurrent first access cannot overwrite the new
// value with the BFS default.
func (r *Registry) SetGraphRetriever(gr retriever.GraphRetriever) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graph.Store(&gr)
}

// Reranker returns the current default reranker, constructing the
// heuristic default on first access.
func (r *Registry) Reranker() reranker.Reranker {
	if p := r.rerank.Load(); p != nil {
		return *p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.rerank.Load(); p != nil {
		return *p
	}
	rr := reranker.Reranker(rerankers.NewHeuristic())
	r.rerank.Store(&rr)
	return rr
}

// SetReranker replaces the default reranker for all subsequent calls
// that do not pass an explicit override. Like SetGraphRetriever, it
// serializes with the lazy default construction.
func (r *Registry) SetReranker(rr reranker.Reranker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rerank.Store(&rr)
}
