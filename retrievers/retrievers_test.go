package retrievers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-roehler/hindsight/internal/index/inmem"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

func seedGraph(t *testing.T) *inmem.Store {
	t.Helper()
	store := inmem.NewStore()
	for _, id := range []string{"F1", "F2", "F3", "F4"} {
		store.PutFact(&types.Fact{
			ID:         id,
			AgentID:    "alice",
			Type:       types.FactWorld,
			Text:       "fact " + id,
			OccurredAt: time.Now(),
		})
	}
	return store
}

func TestBFS_EmptySeeds(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.9)

	res, err := NewBFS().Traverse(context.Background(), store, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Activations)
	assert.Zero(t, res.Visited)
}

func TestPPR_EmptySeeds(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.9)

	res, err := NewPPR().Traverse(context.Background(), store, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Activations)
	assert.Zero(t, res.Visited)
}

func TestBFS_WeightedActivation(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.9)
	store.Link("F1", "F3", 0.1)

	res, err := NewBFS().Traverse(context.Background(), store, []string{"F1"}, 2)
	require.NoError(t, err)

	require.Len(t, res.Activations, 2)
	assert.Equal(t, 2, res.Visited)
	assert.InDelta(t, 0.9, res.Activations["F2"], 1e-9)
	assert.InDelta(t, 0.1, res.Activations["F3"], 1e-9)
	assert.Greater(t, res.Activations["F2"], res.Activations["F3"])
	assert.Equal(t, 1, res.Depths["F2"])
}

func TestPPR_RanksByEdgeStrength(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.9)
	store.Link("F1", "F3", 0.1)

	res, err := NewPPR().Traverse(context.Background(), store, []string{"F1"}, 2)
	require.NoError(t, err)

	require.Contains(t, res.Activations, "F2")
	require.Contains(t, res.Activations, "F3")
	assert.Greater(t, res.Activations["F2"], res.Activations["F3"])

	// Scores converge toward weights proportional to edge strength.
	ratio := res.Activations["F2"] / res.Activations["F3"]
	assert.InDelta(t, 9.0, ratio, 1e-6)
}

func TestBFS_BudgetBoundsVisits(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.8)
	store.Link("F2", "F3", 0.8)
	store.Link("F3", "F4", 0.8)

	res, err := NewBFS().Traverse(context.Background(), store, []string{"F1"}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Visited)
	assert.Contains(t, res.Activations, "F2")
	assert.Contains(t, res.Activations, "F3")
	assert.NotContains(t, res.Activations, "F4")
}

func TestBFS_MultiPathAccumulates(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.5)
	store.Link("F1", "F3", 0.5)
	store.Link("F2", "F4", 0.5)
	store.Link("F3", "F4", 0.5)

	res, err := NewBFS().Traverse(context.Background(), store, []string{"F1"}, 10)
	require.NoError(t, err)

	// F4 receives 0.25 over each of the two paths.
	assert.InDelta(t, 0.5, res.Activations["F4"], 1e-9)
	assert.InDelta(t, 0.5, res.Activations["F2"], 1e-9)
	assert.Equal(t, 2, res.Depths["F4"])
	assert.Equal(t, 3, res.Visited)
}

func TestBFS_Deterministic(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.4)
	store.Link("F1", "F3", 0.6)
	store.Link("F2", "F4", 0.7)
	store.Link("F3", "F4", 0.2)

	first, err := NewBFS().Traverse(context.Background(), store, []string{"F1"}, 3)
	require.NoError(t, err)
	second, err := NewBFS().Traverse(context.Background(), store, []string{"F1"}, 3)
	require.NoError(t, err)

	assert.Equal(t, first.Activations, second.Activations)
	assert.Equal(t, first.Visited, second.Visited)
}

func TestPPR_UnreachedNodesAbsent(t *testing.T) {
	store := seedGraph(t)
	store.Link("F1", "F2", 0.9)
	// F3, F4 disconnected.

	res, err := NewPPR().Traverse(context.Background(), store, []string{"F1"}, 10)
	require.NoError(t, err)

	assert.Contains(t, res.Activations, "F2")
	assert.NotContains(t, res.Activations, "F3")
	assert.NotContains(t, res.Activations, "F4")
}

func TestFactory(t *testing.T) {
	bfs := MustNew("bfs")
	assert.Equal(t, "bfs", string(bfs.Strategy()))

	ppr := MustNew("ppr")
	assert.Equal(t, "ppr", string(ppr.Strategy()))

	_, err := New("dijkstra")
	assert.Error(t, err)

	assert.True(t, IsValidStrategy("ppr"))
	assert.False(t, IsValidStrategy("dijkstra"))
}
