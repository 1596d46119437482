package rerankers

import (
	"context"
	"time"

	"github.com/andreas-roehler/hindsight/internal/textscore"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// HeuristicConfig weights the signals blended by the heuristic reranker.
// Zero values fall back to defaults; weights need not sum to one.
type HeuristicConfig struct {
	FusedWeight   float64 // default 0.6
	RecencyWeight float64 // default 0.2
	OverlapWeight float64 // default 0.2
}

// HeuristicReranker is a cheap deterministic reranker over signals the
// call already has: the fused score, an exponential recency decay, and a
// word-overlap proxy for lexical relevance. No external calls, no added
// latency budget, never fails.
type HeuristicReranker struct {
	cfg HeuristicConfig
	now func() time.Time
}

// NewHeuristic creates a heuristic reranker with default weights.
func NewHeuristic() *HeuristicReranker {
	return NewHeuristicWithConfig(HeuristicConfig{})
}

// NewHeuristicWithConfig creates a heuristic reranker.
func NewHeuristicWithConfig(cfg HeuristicConfig) *HeuristicReranker {
	if cfg.FusedWeight == 0 && cfg.RecencyWeight == 0 && cfg.OverlapWeight == 0 {
		cfg = HeuristicConfig{FusedWeight: 0.6, RecencyWeight: 0.2, OverlapWeight: 0.2}
	}
	return &HeuristicReranker{cfg: cfg, now: time.Now}
}

// Strategy returns the algorithm tag.
func (r *HeuristicReranker) Strategy() reranker.Strategy {
	return reranker.StrategyHeuristic
}

// Rerank implements reranker.Reranker.
func (r *HeuristicReranker) Rerank(ctx context.Context, query string, candidates []*types.FusedCandidate) error {
	now := r.now()
	for _, c := range candidates {
		if c.Fact == nil {
			continue
		}
		recency := textscore.Recency(now, c.Fact.OccurredAt)
		overlap := textscore.TokenSimilarity(query, c.Fact.Text)
		c.Fused = r.cfg.FusedWeight*c.Fused + r.cfg.RecencyWeight*recency + r.cfg.OverlapWeight*overlap
	}
	return nil
}
