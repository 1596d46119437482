package retrieval

import "github.com/andreas-roehler/hindsight/internal/config"

// budgetSplit is the per-call division of the thinking budget across the
// four strategies. The index-backed strategies get fixed small shares;
// the remainder goes to the graph strategy, the only unbounded-cost one.
type budgetSplit struct {
	Semantic int
	Lexical  int
	Temporal int
	Seed     int
	Graph    int
}

// splitBudget divides budget according to cfg. Shares are clamped so the
// running total never exceeds the budget; the split never goes negative.
func splitBudget(budget int, cfg config.RetrievalConfig) budgetSplit {
	remaining := budget

	clamp := func(k int) int {
		if k > remaining {
			k = remaining
		}
		remaining -= k
		return k
	}

	s := budgetSplit{
		Semantic: clamp(cfg.SemanticK),
		Lexical:  clamp(cfg.LexicalK),
		Temporal: clamp(cfg.TemporalK),
	}
	s.Graph = remaining

	// The seed query shares the graph budget rather than consuming it;
	// traversal work dominates the seed lookup.
	s.Seed = cfg.SeedK
	if s.Seed > s.Graph {
		s.Seed = s.Graph
	}
	return s
}
