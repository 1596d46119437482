package rerankers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-roehler/hindsight/internal/index/inmem"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

var rerankClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fused(id, text string, fusedScore float64, age time.Duration) *types.FusedCandidate {
	return &types.FusedCandidate{
		FactID: id,
		Fused:  fusedScore,
		Scores: map[types.Strategy]float64{types.StrategySemantic: fusedScore},
		Fact: &types.Fact{
			ID:         id,
			AgentID:    "alice",
			Type:       types.FactWorld,
			Text:       text,
			OccurredAt: rerankClock.Add(-age),
		},
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	r := NewHeuristic()
	r.now = func() time.Time { return rerankClock }
	query := "coffee preferences in the morning"

	build := func() []*types.FusedCandidate {
		return []*types.FusedCandidate{
			fused("F1", "alice drinks coffee every morning", 0.8, time.Hour),
			fused("F2", "the weather was rainy", 0.5, 48*time.Hour),
		}
	}

	first := build()
	require.NoError(t, r.Rerank(context.Background(), query, first))
	second := build()
	require.NoError(t, r.Rerank(context.Background(), query, second))

	assert.Equal(t, first[0].Fused, second[0].Fused)
	assert.Equal(t, first[1].Fused, second[1].Fused)
	assert.Greater(t, first[0].Fused, first[1].Fused)
}

func TestHeuristic_NilFactKept(t *testing.T) {
	r := NewHeuristic()
	c := &types.FusedCandidate{FactID: "F1", Fused: 0.7}
	require.NoError(t, r.Rerank(context.Background(), "query", []*types.FusedCandidate{c}))
	assert.Equal(t, 0.7, c.Fused)
}

func TestCrossEncoder_ScoresFromBackend(t *testing.T) {
	sim := inmem.NewScoringSim()
	r := NewCrossEncoder(sim, CrossEncoderConfig{BatchSize: 4})

	cands := []*types.FusedCandidate{
		fused("F1", "alice likes strong coffee", 0.1, time.Hour),
		fused("F2", "unrelated text entirely", 0.9, time.Hour),
	}
	require.NoError(t, r.Rerank(context.Background(), "alice likes strong coffee", cands))

	// Backend relevance overrides the fused ordering.
	assert.Greater(t, cands[0].Fused, cands[1].Fused)
}

func TestCrossEncoder_PartialBatchFailure(t *testing.T) {
	sim := inmem.NewScoringSim()
	backendErr := errors.New("scoring backend unavailable")

	// 10 candidates with descending fused scores; ranks 3-5 fail. The
	// top fused score stays below any exact-match backend score so the
	// rerank visibly changes it.
	cands := make([]*types.FusedCandidate, 10)
	for i := range cands {
		text := fmt.Sprintf("candidate number %d", i+1)
		cands[i] = fused(fmt.Sprintf("F%02d", i+1), text, 0.9-float64(i)*0.05, time.Hour)
		if i >= 2 && i <= 4 {
			sim.FailText(text, backendErr)
		}
	}
	preRerank := map[string]float64{}
	for _, c := range cands {
		preRerank[c.FactID] = c.Fused
	}

	r := NewCrossEncoder(sim, CrossEncoderConfig{BatchSize: 1})
	require.NoError(t, r.Rerank(context.Background(), "candidate number 1", cands))

	// Failed candidates keep their pre-rerank fused scores.
	for _, id := range []string{"F03", "F04", "F05"} {
		assert.Equal(t, preRerank[id], scoreOf(cands, id), "candidate %s", id)
	}
	// The rest reflect backend scores.
	assert.NotEqual(t, preRerank["F01"], scoreOf(cands, "F01"))

	// The failed trio stays in its pre-rerank relative order.
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Fused > cands[j].Fused })
	posOf := func(id string) int {
		for i, c := range cands {
			if c.FactID == id {
				return i
			}
		}
		return -1
	}
	assert.Less(t, posOf("F03"), posOf("F04"))
	assert.Less(t, posOf("F04"), posOf("F05"))
}

func TestCrossEncoder_TotalBackendFailureKeepsFusedOrder(t *testing.T) {
	sim := inmem.NewScoringSim()
	sim.FailAll(errors.New("down"))

	cands := []*types.FusedCandidate{
		fused("F1", "a", 0.9, time.Hour),
		fused("F2", "b", 0.4, time.Hour),
	}
	r := NewCrossEncoder(sim, CrossEncoderConfig{BatchSize: 8})
	require.NoError(t, r.Rerank(context.Background(), "query", cands))

	assert.Equal(t, 0.9, cands[0].Fused)
	assert.Equal(t, 0.4, cands[1].Fused)
}

func TestCrossEncoder_CacheSkipsBackend(t *testing.T) {
	sim := inmem.NewScoringSim()
	r := NewCrossEncoder(sim, CrossEncoderConfig{BatchSize: 8, CacheTTL: time.Minute})

	query := "cached query"
	run := func() {
		cands := []*types.FusedCandidate{fused("F1", "some text", 0.3, time.Hour)}
		require.NoError(t, r.Rerank(context.Background(), query, cands))
	}
	run()
	calls := sim.Calls()
	run()
	assert.Equal(t, calls, sim.Calls(), "second run should be served from cache")
}

func TestFactory(t *testing.T) {
	h, err := New("heuristic", nil)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", string(h.Strategy()))

	_, err = New("cross-encoder", nil)
	assert.Error(t, err)

	ce, err := New("cross-encoder", inmem.NewScoringSim())
	require.NoError(t, err)
	assert.Equal(t, "cross-encoder", string(ce.Strategy()))

	_, err = New("mystery", nil)
	assert.Error(t, err)
}

func scoreOf(cands []*types.FusedCandidate, id string) float64 {
	for _, c := range cands {
		if c.FactID == id {
			return c.Fused
		}
	}
	return -1
}
