// Package qdrant implements a Qdrant-backed semantic index over the
// Qdrant HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Embedder turns query text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index implements index.SemanticIndex using Qdrant.
type Index struct {
	client     *http.Client
	embedder   Embedder
	apiBase    string
	apiKey     string
	collection string
}

// Config holds configuration for the Qdrant index.
type Config struct {
	Address    string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewIndex creates a Qdrant-backed semantic index. The embedder encodes
// query text; fact vectors are written by the ingestion pipeline, which
// owns the collection schema.
func NewIndex(cfg Config, embedder Embedder) (*Index, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("qdrant address is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	address := cfg.Address
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	if cfg.Collection == "" {
		cfg.Collection = "hindsight_facts"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		embedder:   embedder,
		apiBase:    address,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}, nil
}

// Search implements index.SemanticIndex.
func (x *Index) Search(ctx context.Context, agentID, query string, factTypes []types.FactType, k int) ([]index.Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	embedding, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vector := make([]float64, len(embedding))
	for i, v := range embedding {
		vector[i] = float64(v)
	}

	mustConditions := []map[string]any{
		{
			"key": "agent_id",
			"match": map[string]any{
				"value": agentID,
			},
		},
	}
	if len(factTypes) > 0 {
		values := make([]string, len(factTypes))
		for i, ft := range factTypes {
			values[i] = string(ft)
		}
		mustConditions = append(mustConditions, map[string]any{
			"key": "fact_type",
			"match": map[string]any{
				"any": values,
			},
		})
	}

	searchBody := map[string]any{
		"vector": vector,
		"limit":  k,
		"filter": map[string]any{
			"must": mustConditions,
		},
	}

	bodyBytes, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", x.apiBase, x.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	x.setHeaders(req)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result struct {
		Result []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]index.Hit, 0, len(result.Result))
	for _, r := range result.Result {
		hits = append(hits, index.Hit{FactID: r.ID, Score: r.Score})
	}
	return hits, nil
}

func (x *Index) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
}
