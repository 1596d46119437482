package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-roehler/hindsight/internal/config"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

func testWeights() config.FusionWeights {
	return config.FusionWeights{Semantic: 0.4, Lexical: 0.25, Graph: 0.2, Temporal: 0.15}
}

func factFixture(id string, occurred time.Time) *types.Fact {
	return &types.Fact{ID: id, AgentID: "a1", Type: types.FactWorld, Text: id, OccurredAt: occurred}
}

func TestNormalizeMinMax(t *testing.T) {
	cands := []types.Candidate{
		{FactID: "a", Score: 2},
		{FactID: "b", Score: 6},
		{FactID: "c", Score: 4},
	}
	normalize(cands)
	assert.Equal(t, 0.0, cands[0].Score)
	assert.Equal(t, 1.0, cands[1].Score)
	assert.Equal(t, 0.5, cands[2].Score)
}

func TestNormalizeConstantScores(t *testing.T) {
	cands := []types.Candidate{
		{FactID: "a", Score: 3},
		{FactID: "b", Score: 3},
	}
	normalize(cands)
	assert.Equal(t, 1.0, cands[0].Score)
	assert.Equal(t, 1.0, cands[1].Score)
}

func TestFuseDeduplicatesByFactID(t *testing.T) {
	now := time.Now()
	facts := map[string]*types.Fact{
		"F1": factFixture("F1", now),
		"F2": factFixture("F2", now),
	}
	perStrategy := map[types.Strategy][]types.Candidate{
		types.StrategySemantic: {
			{FactID: "F1", Score: 0.9, Source: types.StrategySemantic},
			{FactID: "F2", Score: 0.3, Source: types.StrategySemantic},
		},
		types.StrategyLexical: {
			{FactID: "F1", Score: 4.2, Source: types.StrategyLexical},
		},
	}

	fused := fuse(perStrategy, facts, testWeights())
	require.Len(t, fused, 2)

	byID := map[string]*types.FusedCandidate{}
	for _, fc := range fused {
		require.NotContains(t, byID, fc.FactID)
		byID[fc.FactID] = fc
	}

	f1 := byID["F1"]
	require.NotNil(t, f1)
	assert.Len(t, f1.Scores, 2)
	// F1 tops both strategies, so both normalized scores are 1.0.
	assert.InDelta(t, 0.4+0.25, f1.Fused, 1e-9)

	// A strategy that never surfaced the fact contributes no entry.
	f2 := byID["F2"]
	require.NotNil(t, f2)
	assert.NotContains(t, f2.Scores, types.StrategyLexical)
}

func TestFuseDropsUnresolvableFacts(t *testing.T) {
	facts := map[string]*types.Fact{"F1": factFixture("F1", time.Now())}
	perStrategy := map[types.Strategy][]types.Candidate{
		types.StrategySemantic: {
			{FactID: "F1", Score: 1},
			{FactID: "F-gone", Score: 1},
		},
	}
	fused := fuse(perStrategy, facts, testWeights())
	require.Len(t, fused, 1)
	assert.Equal(t, "F1", fused[0].FactID)
}

func TestSortFusedTieBreaks(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	tests := []struct {
		name  string
		fused []*types.FusedCandidate
		want  []string
	}{
		{
			name: "fused score wins",
			fused: []*types.FusedCandidate{
				{FactID: "low", Fact: factFixture("low", newer), Fused: 0.2},
				{FactID: "high", Fact: factFixture("high", older), Fused: 0.8},
			},
			want: []string{"high", "low"},
		},
		{
			name: "semantic score breaks fused ties",
			fused: []*types.FusedCandidate{
				{FactID: "b", Fact: factFixture("b", older), Fused: 0.5,
					Scores: map[types.Strategy]float64{types.StrategySemantic: 0.9}},
				{FactID: "a", Fact: factFixture("a", newer), Fused: 0.5,
					Scores: map[types.Strategy]float64{types.StrategySemantic: 0.1}},
			},
			want: []string{"b", "a"},
		},
		{
			name: "recency breaks semantic ties",
			fused: []*types.FusedCandidate{
				{FactID: "old", Fact: factFixture("old", older), Fused: 0.5},
				{FactID: "new", Fact: factFixture("new", newer), Fused: 0.5},
			},
			want: []string{"new", "old"},
		},
		{
			name: "fact ID breaks full ties",
			fused: []*types.FusedCandidate{
				{FactID: "zz", Fact: factFixture("zz", older), Fused: 0.5},
				{FactID: "aa", Fact: factFixture("aa", older), Fused: 0.5},
			},
			want: []string{"aa", "zz"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sortFused(tt.fused)
			got := make([]string, len(tt.fused))
			for i, fc := range tt.fused {
				got[i] = fc.FactID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
