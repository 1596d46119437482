package retrieval

import (
	"sort"

	"github.com/andreas-roehler/hindsight/internal/config"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// normalize min-max scales scores within one strategy's result set so no
// strategy dominates fusion purely from raw-score scale. A single-result
// or constant-score set maps to 1.0.
func normalize(cands []types.Candidate) {
	if len(cands) == 0 {
		return
	}
	lo, hi := cands[0].Score, cands[0].Score
	for _, c := range cands[1:] {
		if c.Score < lo {
			lo = c.Score
		}
		if c.Score > hi {
			hi = c.Score
		}
	}
	span := hi - lo
	for i := range cands {
		if span == 0 {
			cands[i].Score = 1.0
			continue
		}
		cands[i].Score = (cands[i].Score - lo) / span
	}
}

func strategyWeight(w config.FusionWeights, s types.Strategy) float64 {
	switch s {
	case types.StrategySemantic:
		return w.Semantic
	case types.StrategyLexical:
		return w.Lexical
	case types.StrategyGraph:
		return w.Graph
	case types.StrategyTemporal:
		return w.Temporal
	}
	return 0
}

// fuse merges per-strategy candidates by fact ID into one FusedCandidate
// per fact. Each strategy's scores are min-max normalized first; the
// fused score is the weighted sum of the normalized per-strategy scores.
// Facts unresolvable through the store have already been dropped.
func fuse(perStrategy map[types.Strategy][]types.Candidate, facts map[string]*types.Fact, weights config.FusionWeights) []*types.FusedCandidate {
	byID := make(map[string]*types.FusedCandidate)
	for strategy, cands := range perStrategy {
		normalize(cands)
		w := strategyWeight(weights, strategy)
		for _, c := range cands {
			fact, ok := facts[c.FactID]
			if !ok {
				continue
			}
			fc := byID[c.FactID]
			if fc == nil {
				fc = &types.FusedCandidate{
					FactID: c.FactID,
					Fact:   fact,
					Scores: make(map[types.Strategy]float64, 2),
				}
				byID[c.FactID] = fc
			}
			fc.Scores[strategy] = c.Score
			fc.Fused += w * c.Score
		}
	}

	fused := make([]*types.FusedCandidate, 0, len(byID))
	for _, fc := range byID {
		fused = append(fused, fc)
	}
	sortFused(fused)
	return fused
}

// sortFused orders candidates by fused score descending, breaking ties by
// semantic score descending, then event time descending, then fact ID
// ascending. The full ordering is deterministic.
func sortFused(fused []*types.FusedCandidate) {
	sort.SliceStable(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.Fused != b.Fused {
			return a.Fused > b.Fused
		}
		as, bs := a.Scores[types.StrategySemantic], b.Scores[types.StrategySemantic]
		if as != bs {
			return as > bs
		}
		if a.Fact != nil && b.Fact != nil && !a.Fact.OccurredAt.Equal(b.Fact.OccurredAt) {
			return a.Fact.OccurredAt.After(b.Fact.OccurredAt)
		}
		return a.FactID < b.FactID
	})
}
