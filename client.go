package hindsight

import (
	"context"
	"fmt"

	"github.com/andreas-roehler/hindsight/internal/config"
	"github.com/andreas-roehler/hindsight/internal/retrieval"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
	"github.com/andreas-roehler/hindsight/rerankers"
	"github.com/andreas-roehler/hindsight/retrievers"
)

// Client is the library entry point. It wraps the retrieval engine and
// the strategy registry behind a stable surface. Safe for concurrent
// use.
type Client struct {
	engine   *retrieval.Engine
	registry *retrieval.Registry
	facts    index.FactStore
	scoring  index.ScoringBackend
}

// Query is a single retrieval request.
type Query struct {
	// AgentID scopes retrieval to one agent's memories plus world
	// facts.
	AgentID string

	// Text is the natural-language query.
	Text string

	// FactTypes restricts results to the given types. Empty means all.
	FactTypes []FactType

	// Budget is the thinking budget, the total number of candidates the
	// strategies may surface together. Must be positive.
	Budget int

	// MaxResults caps the ranked result list. Must be positive.
	MaxResults int

	// WantTrace requests the per-call diagnostic trace.
	WantTrace bool

	// GraphRetriever and Reranker override the registry defaults for
	// this call only. Nil means the default.
	GraphRetriever retriever.GraphRetriever
	Reranker       reranker.Reranker
}

// New creates a hindsight client. A fact store is required; wire one
// with WithInMemoryStore or WithFactStore.
func New(opts ...Option) (*Client, error) {
	cc := &ClientConfig{}
	for _, opt := range opts {
		opt(cc)
	}
	if cc.Facts == nil {
		return nil, fmt.Errorf("a fact store is required; use WithInMemoryStore or WithFactStore")
	}

	cfg := config.DefaultConfig()
	if cc.StrategyTimeout > 0 {
		cfg.Retrieval.StrategyTimeout = cc.StrategyTimeout
	}
	if cc.SemanticK > 0 {
		cfg.Retrieval.SemanticK = cc.SemanticK
	}
	if cc.LexicalK > 0 {
		cfg.Retrieval.LexicalK = cc.LexicalK
	}
	if cc.TemporalK > 0 {
		cfg.Retrieval.TemporalK = cc.TemporalK
	}
	if cc.SeedK > 0 {
		cfg.Retrieval.SeedK = cc.SeedK
	}
	if cc.Weights != nil {
		cfg.Retrieval.Weights = config.FusionWeights{
			Semantic: cc.Weights.Semantic,
			Lexical:  cc.Weights.Lexical,
			Graph:    cc.Weights.Graph,
			Temporal: cc.Weights.Temporal,
		}
	}
	if cc.TopKMultiplier > 0 {
		cfg.Rerank.TopKMultiplier = cc.TopKMultiplier
	}
	if cc.GraphStrategy != "" {
		cfg.Retrieval.Strategy = string(cc.GraphStrategy)
	}
	if cc.RerankStrategy != "" {
		cfg.Rerank.Strategy = string(cc.RerankStrategy)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	registry := cc.Registry
	if registry == nil {
		registry = retrieval.NewRegistry()
	}
	if cc.GraphStrategy != "" {
		gr, err := retrievers.New(cc.GraphStrategy)
		if err != nil {
			return nil, err
		}
		registry.SetGraphRetriever(gr)
	}
	if cc.RerankStrategy != "" {
		rr, err := rerankers.New(cc.RerankStrategy, cc.ScoringBackend)
		if err != nil {
			return nil, err
		}
		registry.SetReranker(rr)
	}

	engine := retrieval.NewEngine(retrieval.EngineConfig{
		Semantic: cc.Semantic,
		Lexical:  cc.Lexical,
		Temporal: cc.Temporal,
		Graph:    cc.Graph,
		Facts:    cc.Facts,
		Registry: registry,
		Config:   config.NewStaticManager(cfg),
		Logger:   cc.Logger,
	})

	return &Client{
		engine:   engine,
		registry: registry,
		facts:    cc.Facts,
		scoring:  cc.ScoringBackend,
	}, nil
}

// Retrieve runs the four retrieval strategies for the query, fuses and
// reranks their candidates, and returns up to MaxResults ranked facts.
// The trace is non-nil only when Query.WantTrace is set.
func (c *Client) Retrieve(ctx context.Context, q Query) ([]SearchResult, *Trace, error) {
	resp, err := c.engine.Retrieve(ctx, retrieval.Request{
		AgentID:        q.AgentID,
		Query:          q.Text,
		FactTypes:      q.FactTypes,
		Budget:         q.Budget,
		MaxResults:     q.MaxResults,
		WantTrace:      q.WantTrace,
		GraphRetriever: q.GraphRetriever,
		Reranker:       q.Reranker,
	})
	if err != nil {
		return nil, nil, err
	}
	return resp.Results, resp.Trace, nil
}

// Agents lists the distinct agent IDs present in the fact store.
func (c *Client) Agents(ctx context.Context) ([]string, error) {
	return c.facts.Agents(ctx)
}

// SetDefaultGraphRetriever swaps the process default graph retrieval
// strategy. In-flight calls keep the retriever they started with.
func (c *Client) SetDefaultGraphRetriever(s retriever.Strategy) error {
	gr, err := retrievers.New(s)
	if err != nil {
		return err
	}
	c.registry.SetGraphRetriever(gr)
	return nil
}

// SetDefaultReranker swaps the default rerank strategy. The
// cross-encoder strategy requires a scoring backend configured at
// construction.
func (c *Client) SetDefaultReranker(s reranker.Strategy) error {
	rr, err := rerankers.New(s, c.scoring)
	if err != nil {
		return err
	}
	c.registry.SetReranker(rr)
	return nil
}

// Registry exposes the client's strategy registry for callers that
// register custom retriever or reranker implementations.
func (c *Client) Registry() *retrieval.Registry {
	return c.registry
}
