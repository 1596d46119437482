package hindsight

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-roehler/hindsight/internal/index/inmem"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()

	store := NewInMemoryStore()
	now := time.Now().UTC()

	deploy := store.PutFact(&Fact{
		AgentID:    "assistant-1",
		Type:       FactWorld,
		Text:       "the deploy pipeline runs nightly at 02:00 UTC",
		OccurredAt: now.Add(-48 * time.Hour),
	})
	rollback := store.PutFact(&Fact{
		AgentID:    "assistant-1",
		Type:       FactWorld,
		Text:       "rollbacks require an approval from the deploy pipeline owner",
		OccurredAt: now.Add(-2 * time.Hour),
	})
	store.PutFact(&Fact{
		AgentID:    "assistant-1",
		Type:       FactAgent,
		Text:       "I prefer short status summaries",
		OccurredAt: now.Add(-24 * time.Hour),
	})
	store.PutFact(&Fact{
		AgentID:    "other-agent",
		Type:       FactWorld,
		Text:       "the deploy pipeline is owned by another team",
		OccurredAt: now,
	})
	store.Link(deploy, rollback, 0.8)

	return store
}

func TestNewRequiresFactStore(t *testing.T) {
	client, err := New()
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "fact store")
}

func TestClientRetrieve(t *testing.T) {
	store := newSeededStore(t)
	client, err := New(WithInMemoryStore(store))
	require.NoError(t, err)

	results, trace, err := client.Retrieve(context.Background(), Query{
		AgentID:    "assistant-1",
		Text:       "when does the deploy pipeline run",
		Budget:     100,
		MaxResults: 5,
		WantTrace:  true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.NotNil(t, trace)

	for _, r := range results {
		assert.Equal(t, "assistant-1", r.Fact.AgentID)
	}
	assert.Contains(t, results[0].Fact.Text, "deploy pipeline")
}

func TestClientRetrieveNoTraceByDefault(t *testing.T) {
	client, err := New(WithInMemoryStore(newSeededStore(t)))
	require.NoError(t, err)

	_, trace, err := client.Retrieve(context.Background(), Query{
		AgentID:    "assistant-1",
		Text:       "deploy pipeline",
		Budget:     50,
		MaxResults: 3,
	})
	require.NoError(t, err)
	assert.Nil(t, trace)
}

func TestClientRetrieveValidation(t *testing.T) {
	client, err := New(WithInMemoryStore(newSeededStore(t)))
	require.NoError(t, err)

	_, _, err = client.Retrieve(context.Background(), Query{
		AgentID:    "assistant-1",
		Text:       "anything",
		Budget:     0,
		MaxResults: 3,
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestClientFactTypeFilter(t *testing.T) {
	client, err := New(WithInMemoryStore(newSeededStore(t)))
	require.NoError(t, err)

	results, _, err := client.Retrieve(context.Background(), Query{
		AgentID:    "assistant-1",
		Text:       "status summaries",
		FactTypes:  []FactType{FactAgent},
		Budget:     50,
		MaxResults: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, FactAgent, r.Fact.Type)
	}
}

func TestClientAgents(t *testing.T) {
	client, err := New(WithInMemoryStore(newSeededStore(t)))
	require.NoError(t, err)

	agents, err := client.Agents(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"assistant-1", "other-agent"}, agents)
}

func TestClientGraphStrategyOption(t *testing.T) {
	client, err := New(
		WithInMemoryStore(newSeededStore(t)),
		WithGraphStrategy(GraphPPR),
	)
	require.NoError(t, err)
	assert.Equal(t, GraphPPR, client.Registry().GraphRetriever().Strategy())
}

func TestSetDefaultGraphRetriever(t *testing.T) {
	client, err := New(WithInMemoryStore(newSeededStore(t)))
	require.NoError(t, err)

	require.NoError(t, client.SetDefaultGraphRetriever(GraphPPR))
	assert.Equal(t, GraphPPR, client.Registry().GraphRetriever().Strategy())

	assert.Error(t, client.SetDefaultGraphRetriever("dijkstra"))
}

func TestCrossEncoderRequiresScoringBackend(t *testing.T) {
	_, err := New(
		WithInMemoryStore(newSeededStore(t)),
		WithRerankStrategy(RerankCrossEncoder),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring backend")
}

func TestClientFusionWeightsOption(t *testing.T) {
	client, err := New(
		WithInMemoryStore(newSeededStore(t)),
		WithFusionWeights(FusionWeights{Temporal: 1.0}),
	)
	require.NoError(t, err)

	// With only the temporal weight positive, the newest fact ranks
	// first regardless of text similarity.
	results, _, err := client.Retrieve(context.Background(), Query{
		AgentID:    "assistant-1",
		Text:       "deploy pipeline",
		Budget:     100,
		MaxResults: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Fact.Text, "rollbacks")
}

func TestCrossEncoderWithScoringBackend(t *testing.T) {
	client, err := New(
		WithInMemoryStore(newSeededStore(t)),
		WithRerankStrategy(RerankCrossEncoder),
		WithScoringBackend(inmem.NewScoringSim()),
	)
	require.NoError(t, err)
	assert.Equal(t, RerankCrossEncoder, client.Registry().Reranker().Strategy())

	results, _, err := client.Retrieve(context.Background(), Query{
		AgentID:    "assistant-1",
		Text:       "deploy pipeline",
		Budget:     100,
		MaxResults: 5,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}
