package chromem

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-roehler/hindsight/pkg/types"
)

// bagEmbedding is a deterministic local embedding func: words hash into
// a small fixed-dimension bag vector.
func bagEmbedding(ctx context.Context, text string) ([]float32, error) {
	const dim = 64
	vec := make([]float32, dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%dim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	x := NewIndex(bagEmbedding)
	ctx := context.Background()

	facts := []*types.Fact{
		{ID: "F-go", AgentID: "a1", Type: types.FactWorld, Text: "goroutines are lightweight threads managed by the go runtime"},
		{ID: "F-chan", AgentID: "a1", Type: types.FactWorld, Text: "channels synchronize communication between goroutines"},
		{ID: "F-pref", AgentID: "a1", Type: types.FactAgent, Text: "prefers short answers"},
		{ID: "F-other", AgentID: "a2", Type: types.FactWorld, Text: "goroutines are lightweight threads managed by the go runtime"},
	}
	for _, f := range facts {
		require.NoError(t, x.Add(ctx, f))
	}
	return x
}

func TestSearchRanksClosestFirst(t *testing.T) {
	x := newTestIndex(t)

	hits, err := x.Search(context.Background(), "a1",
		"goroutines are lightweight threads managed by the go runtime", nil, 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "F-go", hits[0].FactID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSearchScopesByAgent(t *testing.T) {
	x := newTestIndex(t)

	hits, err := x.Search(context.Background(), "a2", "goroutines lightweight threads", nil, 10)
	require.NoError(t, err)
	for _, h := range hits {
		assert.Equal(t, "F-other", h.FactID)
	}
}

func TestSearchFactTypeFilter(t *testing.T) {
	x := newTestIndex(t)

	hits, err := x.Search(context.Background(), "a1", "short answers",
		[]types.FactType{types.FactAgent}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, "F-pref", h.FactID)
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	x := NewIndex(bagEmbedding)
	hits, err := x.Search(context.Background(), "nobody", "anything", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchZeroK(t *testing.T) {
	x := newTestIndex(t)
	hits, err := x.Search(context.Background(), "a1", "query", nil, 0)
	require.NoError(t, err)
	assert.Nil(t, hits)
}
