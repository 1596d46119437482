package hindsight

import (
	"log/slog"
	"time"

	"github.com/andreas-roehler/hindsight/internal/index/inmem"
	"github.com/andreas-roehler/hindsight/internal/retrieval"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
)

// FusionWeights blend the normalized per-strategy scores. Weights need
// not sum to 1; at least one must be positive.
type FusionWeights struct {
	Semantic float64
	Lexical  float64
	Graph    float64
	Temporal float64
}

// ClientConfig holds all configuration for a hindsight client. Most
// callers use New with functional options instead of filling this in
// directly.
type ClientConfig struct {
	// Backing indexes. Facts is required; a nil index degrades its
	// strategy on every call instead of failing construction.
	Semantic index.SemanticIndex
	Lexical  index.LexicalIndex
	Temporal index.TemporalIndex
	Graph    index.MemoryGraph
	Facts    index.FactStore

	// Orchestrator tuning. Zero values take the defaults.
	StrategyTimeout time.Duration
	SemanticK       int
	LexicalK        int
	TemporalK       int
	SeedK           int
	Weights         *FusionWeights
	TopKMultiplier  int

	// Default strategies. Per-call overrides on Query win over these.
	GraphStrategy  retriever.Strategy
	RerankStrategy reranker.Strategy

	// ScoringBackend powers the cross-encoder reranker. Required when
	// RerankStrategy is cross-encoder.
	ScoringBackend index.ScoringBackend

	// Registry overrides the client's private strategy registry, for
	// sharing defaults across clients.
	Registry *retrieval.Registry

	Logger *slog.Logger
}

// Option configures the client.
type Option func(*ClientConfig)

// WithInMemoryStore wires one in-memory store as every collaborator:
// semantic, lexical, and temporal indexes, the memory graph, and the
// fact store.
func WithInMemoryStore(store *inmem.Store) Option {
	return func(c *ClientConfig) {
		c.Semantic = store.Semantic()
		c.Lexical = store.Lexical()
		c.Temporal = store.Temporal()
		c.Graph = store
		c.Facts = store
	}
}

// WithSemanticIndex sets the semantic index.
func WithSemanticIndex(idx index.SemanticIndex) Option {
	return func(c *ClientConfig) {
		c.Semantic = idx
	}
}

// WithLexicalIndex sets the lexical index.
func WithLexicalIndex(idx index.LexicalIndex) Option {
	return func(c *ClientConfig) {
		c.Lexical = idx
	}
}

// WithTemporalIndex sets the temporal index.
func WithTemporalIndex(idx index.TemporalIndex) Option {
	return func(c *ClientConfig) {
		c.Temporal = idx
	}
}

// WithGraph sets the memory graph.
func WithGraph(g index.MemoryGraph) Option {
	return func(c *ClientConfig) {
		c.Graph = g
	}
}

// WithFactStore sets the fact store.
func WithFactStore(s index.FactStore) Option {
	return func(c *ClientConfig) {
		c.Facts = s
	}
}

// WithStrategyTimeout bounds each retrieval strategy per call.
func WithStrategyTimeout(d time.Duration) Option {
	return func(c *ClientConfig) {
		c.StrategyTimeout = d
	}
}

// WithBudgetShares sets the fixed per-call budget shares of the
// index-backed strategies and the graph seed count. The rest of the
// thinking budget goes to graph traversal.
func WithBudgetShares(semanticK, lexicalK, temporalK, seedK int) Option {
	return func(c *ClientConfig) {
		c.SemanticK = semanticK
		c.LexicalK = lexicalK
		c.TemporalK = temporalK
		c.SeedK = seedK
	}
}

// WithFusionWeights sets the per-strategy fusion weights.
func WithFusionWeights(w FusionWeights) Option {
	return func(c *ClientConfig) {
		c.Weights = &w
	}
}

// WithTopKMultiplier sizes the rerank slice as a multiple of the
// requested max results.
func WithTopKMultiplier(n int) Option {
	return func(c *ClientConfig) {
		c.TopKMultiplier = n
	}
}

// WithGraphStrategy sets the default graph retrieval strategy.
func WithGraphStrategy(s retriever.Strategy) Option {
	return func(c *ClientConfig) {
		c.GraphStrategy = s
	}
}

// WithRerankStrategy sets the default rerank strategy. The
// cross-encoder strategy also needs WithScoringBackend.
func WithRerankStrategy(s reranker.Strategy) Option {
	return func(c *ClientConfig) {
		c.RerankStrategy = s
	}
}

// WithScoringBackend sets the scoring backend for the cross-encoder
// reranker.
func WithScoringBackend(b index.ScoringBackend) Option {
	return func(c *ClientConfig) {
		c.ScoringBackend = b
	}
}

// WithRegistry shares a strategy registry across clients.
func WithRegistry(r *retrieval.Registry) Option {
	return func(c *ClientConfig) {
		c.Registry = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}
