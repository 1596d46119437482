package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreas-roehler/hindsight/internal/config"
	"github.com/andreas-roehler/hindsight/internal/index/inmem"
	"github.com/andreas-roehler/hindsight/internal/retrieval"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := inmem.NewStore()
	store.PutFact(&types.Fact{
		ID:         "F1",
		AgentID:    "a1",
		Type:       types.FactWorld,
		Text:       "goroutines are scheduled by the go runtime",
		OccurredAt: time.Now().Add(-time.Hour),
	})
	store.PutFact(&types.Fact{
		ID:         "F2",
		AgentID:    "a1",
		Type:       types.FactWorld,
		Text:       "channels pass values between goroutines",
		OccurredAt: time.Now(),
	})

	engine := retrieval.NewEngine(retrieval.EngineConfig{
		Semantic: store.Semantic(),
		Lexical:  store.Lexical(),
		Temporal: store.Temporal(),
		Graph:    store,
		Facts:    store,
		Registry: retrieval.NewRegistry(),
		Config:   config.NewStaticManager(config.DefaultConfig()),
	})
	return NewHandler(engine, store, nil)
}

func doSearch(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestSearchHappyPath(t *testing.T) {
	h := newTestHandler(t)

	rec := doSearch(t, h, SearchRequest{
		Query:          "goroutines runtime",
		AgentID:        "a1",
		ThinkingBudget: 50,
		MaxResults:     5,
		Trace:          true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Results)
	require.NotNil(t, resp.Trace)
	assert.Equal(t, len(resp.Results), resp.Trace.ResultsReturned)
	assert.Greater(t, resp.Trace.SearchTimeSecs, 0.0)
}

func TestSearchDefaults(t *testing.T) {
	h := newTestHandler(t)

	// Budget and max results fall back to server defaults when omitted.
	rec := doSearch(t, h, map[string]any{
		"query":    "channels",
		"agent_id": "a1",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing query", map[string]any{"agent_id": "a1"}},
		{"negative budget", SearchRequest{Query: "q", AgentID: "a1", ThinkingBudget: -1}},
		{"unknown fact type", SearchRequest{Query: "q", AgentID: "a1", FactTypes: []string{"rumor"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doSearch(t, h, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error.Type)
		})
	}
}

func TestSearchMalformedJSON(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgents(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AgentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a1"}, resp.Agents)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
