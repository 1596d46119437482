// Package retrieval implements the multi-strategy retrieval orchestrator:
// it fans a query out to the semantic, lexical, graph-associative, and
// temporal strategies concurrently, fuses and deduplicates their
// candidates, applies the reranker, and attaches trace accounting.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/andreas-roehler/hindsight/internal/config"
	"github.com/andreas-roehler/hindsight/internal/metrics"
	hserrors "github.com/andreas-roehler/hindsight/pkg/errors"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Request is one retrieval call.
type Request struct {
	AgentID    string
	Query      string
	FactTypes  []types.FactType // empty means all
	Budget     int              // thinking budget, must be positive
	MaxResults int
	WantTrace  bool

	// Per-call strategy overrides. Nil means the registry default,
	// captured once at call entry.
	GraphRetriever retriever.GraphRetriever
	Reranker       reranker.Reranker
}

func (r *Request) validate() error {
	if r.Budget <= 0 {
		return hserrors.NewInvalidBudgetError(fmt.Sprintf("thinking budget must be positive, got %d", r.Budget))
	}
	if r.MaxResults <= 0 {
		return hserrors.NewInvalidBudgetError(fmt.Sprintf("max results must be positive, got %d", r.MaxResults))
	}
	for _, ft := range r.FactTypes {
		if !ft.Valid() {
			return hserrors.NewInvalidFactTypeError(fmt.Sprintf("unknown fact type %q", ft))
		}
	}
	return nil
}

// Response carries the ranked results and, when requested, the trace.
type Response struct {
	Results []types.SearchResult
	Trace   *types.Trace
}

// EngineConfig wires the engine's collaborators. Semantic, Lexical,
// Temporal, Graph, and Facts are the read-only backing indexes; a nil
// collaborator degrades its strategy instead of failing construction.
type EngineConfig struct {
	Semantic index.SemanticIndex
	Lexical  index.LexicalIndex
	Temporal index.TemporalIndex
	Graph    index.MemoryGraph
	Facts    index.FactStore

	Registry *Registry
	Config   *config.Manager
	Logger   *slog.Logger
}

// Engine is the retrieval orchestrator. It is safe for concurrent use;
// a call never mutates anything behind the collaborator interfaces.
type Engine struct {
	semantic index.SemanticIndex
	lexical  index.LexicalIndex
	temporal index.TemporalIndex
	graph    index.MemoryGraph
	facts    index.FactStore

	registry *Registry
	config   *config.Manager
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewEngine creates an orchestrator over the given collaborators.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Config == nil {
		cfg.Config = config.NewStaticManager(config.DefaultConfig())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		semantic: cfg.Semantic,
		lexical:  cfg.Lexical,
		temporal: cfg.Temporal,
		graph:    cfg.Graph,
		facts:    cfg.Facts,
		registry: cfg.Registry,
		config:   cfg.Config,
		logger:   cfg.Logger,
		tracer:   otel.Tracer("hindsight"),
	}
}

// strategyOutcome is one strategy's contribution to a call.
type strategyOutcome struct {
	strategy  types.Strategy
	cands     []types.Candidate
	activated int
	err       error
}

// Retrieve runs the four retrieval strategies concurrently, fuses their
// candidates, reranks the top slice, and returns up to MaxResults. A
// strategy that errors or times out contributes nothing and is recorded
// as degraded; the call fails only when every strategy degrades.
func (e *Engine) Retrieve(ctx context.Context, req Request) (*Response, error) {
	if err := req.validate(); err != nil {
		metrics.RetrieveTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	start := time.Now()
	cfg := e.config.Get()
	rcfg := cfg.Retrieval

	// Snapshot the strategies at call entry; a registry swap mid-call
	// does not affect this invocation.
	gr := req.GraphRetriever
	if gr == nil {
		gr = e.registry.GraphRetriever()
	}
	rr := req.Reranker
	if rr == nil {
		rr = e.registry.Reranker()
	}

	ctx, span := e.tracer.Start(ctx, "hindsight.retrieve",
		trace.WithAttributes(
			attribute.String("agent_id", req.AgentID),
			attribute.Int("budget", req.Budget),
			attribute.Int("max_results", req.MaxResults),
		),
	)
	defer span.End()

	split := splitBudget(req.Budget, rcfg)
	outcomes := e.fanOut(ctx, req, split, gr, rcfg.StrategyTimeout)

	callTrace := &types.Trace{
		StrategyCandidates: make(map[types.Strategy]int, 4),
	}
	perStrategy := make(map[types.Strategy][]types.Candidate, 4)
	totalActivated := 0

	for _, o := range outcomes {
		if o.err != nil {
			reason := "error"
			if errors.Is(o.err, context.DeadlineExceeded) || hserrors.IsType(o.err, hserrors.TypeStrategyTimeout) {
				reason = "timeout"
			}
			callTrace.Degraded = append(callTrace.Degraded, types.DegradedStrategy{
				Strategy: o.strategy,
				Reason:   fmt.Sprintf("%s: %v", reason, o.err),
			})
			metrics.StrategyDegraded.WithLabelValues(string(o.strategy), reason).Inc()
			e.logger.Warn("retrieval strategy degraded",
				"strategy", o.strategy,
				"agent_id", req.AgentID,
				"error", o.err,
			)
			continue
		}
		perStrategy[o.strategy] = o.cands
		callTrace.StrategyCandidates[o.strategy] = len(o.cands)
		totalActivated += o.activated
		metrics.StrategyCandidates.WithLabelValues(string(o.strategy)).Observe(float64(len(o.cands)))
	}

	if len(callTrace.Degraded) == len(outcomes) {
		metrics.RetrieveTotal.WithLabelValues("total_failure").Inc()
		span.SetAttributes(attribute.Bool("error", true))
		return nil, hserrors.NewTotalRetrievalFailureError(
			fmt.Sprintf("all %d retrieval strategies failed for agent %q", len(outcomes), req.AgentID))
	}

	facts, err := e.resolveFacts(ctx, perStrategy)
	if err != nil {
		metrics.RetrieveTotal.WithLabelValues("total_failure").Inc()
		span.SetAttributes(attribute.Bool("error", true))
		return nil, hserrors.NewTotalRetrievalFailureError(
			fmt.Sprintf("fact resolution failed: %v", err))
	}

	// Graph hits come back as bare fact IDs; apply the agent scope and
	// fact-type filter here, before fusion, using the resolved facts.
	perStrategy[types.StrategyGraph] = filterGraphCandidates(
		perStrategy[types.StrategyGraph], facts, req.AgentID, req.FactTypes)

	fused := fuse(perStrategy, facts, rcfg.Weights)
	callTrace.FusedCandidates = len(fused)

	// The multiply can wrap negative for a huge MaxResults; treat any
	// out-of-range product as "rerank everything".
	topK := cfg.Rerank.TopKMultiplier * req.MaxResults
	if topK <= 0 || topK > len(fused) {
		topK = len(fused)
	}
	slice := fused[:topK]

	rerankStart := time.Now()
	if err := rr.Rerank(ctx, req.Query, slice); err != nil {
		// Candidates keep their fused scores.
		e.logger.Warn("rerank degraded", "strategy", rr.Strategy(), "error", err)
	}
	metrics.RerankLatency.WithLabelValues(string(rr.Strategy())).Observe(time.Since(rerankStart).Seconds())
	sortFused(slice)
	callTrace.RerankedCandidates = len(slice)

	n := req.MaxResults
	if n > len(slice) {
		n = len(slice)
	}
	results := make([]types.SearchResult, 0, n)
	for _, fc := range slice[:n] {
		results = append(results, types.SearchResult{
			Fact:    fc.Fact,
			Score:   fc.Fused,
			Sources: fc.Scores,
		})
	}

	callTrace.TotalActivated = totalActivated
	callTrace.ResultsReturned = len(results)
	callTrace.Finalize(start)

	metrics.RetrieveTotal.WithLabelValues("ok").Inc()
	metrics.RetrieveLatency.Observe(callTrace.SearchTimeSecs)
	metrics.ResultsReturned.Observe(float64(len(results)))
	metrics.GraphActivated.Observe(float64(totalActivated))
	span.SetAttributes(
		attribute.Int("results_returned", len(results)),
		attribute.Int("total_activated", totalActivated),
	)

	resp := &Response{Results: results}
	if req.WantTrace {
		resp.Trace = callTrace
	}
	return resp, nil
}

// fanOut runs the four strategies concurrently, each under its own
// timeout, and joins them all before returning. No worker outlives the
// call.
func (e *Engine) fanOut(ctx context.Context, req Request, split budgetSplit, gr retriever.GraphRetriever, timeout time.Duration) []strategyOutcome {
	type runner struct {
		strategy types.Strategy
		fn       func(context.Context) ([]types.Candidate, int, error)
	}
	runners := []runner{
		{types.StrategySemantic, func(sctx context.Context) ([]types.Candidate, int, error) {
			return e.runSemantic(sctx, req, split.Semantic)
		}},
		{types.StrategyLexical, func(sctx context.Context) ([]types.Candidate, int, error) {
			return e.runLexical(sctx, req, split.Lexical)
		}},
		{types.StrategyGraph, func(sctx context.Context) ([]types.Candidate, int, error) {
			return e.runGraph(sctx, req, split, gr)
		}},
		{types.StrategyTemporal, func(sctx context.Context) ([]types.Candidate, int, error) {
			return e.runTemporal(sctx, req, split.Temporal)
		}},
	}

	outcomes := make([]strategyOutcome, len(runners))
	var wg sync.WaitGroup
	for i, r := range runners {
		wg.Add(1)
		go func(i int, r runner) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			sctx, sspan := e.tracer.Start(sctx, "hindsight.strategy."+string(r.strategy))
			defer sspan.End()

			t0 := time.Now()
			cands, activated, err := r.fn(sctx)
			metrics.StrategyLatency.WithLabelValues(string(r.strategy)).Observe(time.Since(t0).Seconds())
			if err != nil {
				sspan.RecordError(err)
			}
			outcomes[i] = strategyOutcome{
				strategy:  r.strategy,
				cands:     cands,
				activated: activated,
				err:       err,
			}
		}(i, r)
	}
	wg.Wait()
	return outcomes
}

func (e *Engine) runSemantic(ctx context.Context, req Request, k int) ([]types.Candidate, int, error) {
	if e.semantic == nil {
		return nil, 0, hserrors.NewStrategyUnavailableError(string(types.StrategySemantic), "no semantic index configured")
	}
	if k <= 0 {
		return nil, 0, nil
	}
	hits, err := e.semantic.Search(ctx, req.AgentID, req.Query, req.FactTypes, k)
	if err != nil {
		return nil, 0, err
	}
	return hitsToCandidates(hits, types.StrategySemantic), 0, nil
}

func (e *Engine) runLexical(ctx context.Context, req Request, k int) ([]types.Candidate, int, error) {
	if e.lexical == nil {
		return nil, 0, hserrors.NewStrategyUnavailableError(string(types.StrategyLexical), "no lexical index configured")
	}
	if k <= 0 {
		return nil, 0, nil
	}
	hits, err := e.lexical.Search(ctx, req.AgentID, req.Query, req.FactTypes, k)
	if err != nil {
		return nil, 0, err
	}
	return hitsToCandidates(hits, types.StrategyLexical), 0, nil
}

func (e *Engine) runTemporal(ctx context.Context, req Request, k int) ([]types.Candidate, int, error) {
	if e.temporal == nil {
		return nil, 0, hserrors.NewStrategyUnavailableError(string(types.StrategyTemporal), "no temporal index configured")
	}
	if k <= 0 {
		return nil, 0, nil
	}
	hits, err := e.temporal.Recent(ctx, req.AgentID, req.FactTypes, k)
	if err != nil {
		return nil, 0, err
	}
	return hitsToCandidates(hits, types.StrategyTemporal), 0, nil
}

// runGraph seeds the traversal from its own small semantic lookup, then
// walks the memory graph under the remaining budget.
func (e *Engine) runGraph(ctx context.Context, req Request, split budgetSplit, gr retriever.GraphRetriever) ([]types.Candidate, int, error) {
	if e.graph == nil || e.semantic == nil {
		return nil, 0, hserrors.NewStrategyUnavailableError(string(types.StrategyGraph), "no memory graph configured")
	}
	if split.Graph <= 0 || split.Seed <= 0 {
		return nil, 0, nil
	}

	seedHits, err := e.semantic.Search(ctx, req.AgentID, req.Query, req.FactTypes, split.Seed)
	if err != nil {
		return nil, 0, fmt.Errorf("seed lookup: %w", err)
	}
	if len(seedHits) == 0 {
		return nil, 0, nil
	}
	seeds := make([]string, len(seedHits))
	for i, h := range seedHits {
		seeds[i] = h.FactID
	}

	res, err := gr.Traverse(ctx, e.graph, seeds, split.Graph)
	if err != nil {
		return nil, 0, fmt.Errorf("graph traversal: %w", err)
	}

	cands := make([]types.Candidate, 0, len(res.Activations))
	for id, act := range res.Activations {
		cands = append(cands, types.Candidate{
			FactID:   id,
			Score:    act,
			Source:   types.StrategyGraph,
			Depth:    res.Depths[id],
			WalkProb: act,
		})
	}
	return cands, res.Visited, nil
}

func hitsToCandidates(hits []index.Hit, source types.Strategy) []types.Candidate {
	cands := make([]types.Candidate, len(hits))
	for i, h := range hits {
		cands[i] = types.Candidate{FactID: h.FactID, Score: h.Score, Source: source}
	}
	return cands
}

// resolveFacts fetches the fact records for every candidate surfaced by
// any strategy in one batch. IDs no longer present in the store are
// dropped from the result map and thus from fusion.
func (e *Engine) resolveFacts(ctx context.Context, perStrategy map[types.Strategy][]types.Candidate) (map[string]*types.Fact, error) {
	if e.facts == nil {
		return nil, fmt.Errorf("no fact store configured")
	}
	seen := make(map[string]struct{})
	ids := make([]string, 0, 32)
	for _, cands := range perStrategy {
		for _, c := range cands {
			if _, ok := seen[c.FactID]; ok {
				continue
			}
			seen[c.FactID] = struct{}{}
			ids = append(ids, c.FactID)
		}
	}
	if len(ids) == 0 {
		return map[string]*types.Fact{}, nil
	}

	facts, err := e.facts.Facts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Fact, len(facts))
	for _, f := range facts {
		byID[f.ID] = f
	}
	return byID, nil
}

// filterGraphCandidates drops graph hits outside the agent scope or the
// requested fact types. Index-backed strategies push this filter into
// the index contract; the graph cannot, since it indexes bare fact IDs.
func filterGraphCandidates(cands []types.Candidate, facts map[string]*types.Fact, agentID string, factTypes []types.FactType) []types.Candidate {
	if len(cands) == 0 {
		return cands
	}
	var allowed map[types.FactType]struct{}
	if len(factTypes) > 0 {
		allowed = make(map[types.FactType]struct{}, len(factTypes))
		for _, ft := range factTypes {
			allowed[ft] = struct{}{}
		}
	}

	kept := cands[:0]
	for _, c := range cands {
		f, ok := facts[c.FactID]
		if !ok || f.AgentID != agentID {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[f.Type]; !ok {
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}
