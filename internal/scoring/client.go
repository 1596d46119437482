// Package scoring provides an HTTP client for a cross-encoder scoring
// service implementing the index.ScoringBackend contract.
package scoring

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Client scores (query, text) pairs against a remote cross-encoder
// service exposing a POST /score endpoint.
type Client struct {
	client  *http.Client
	apiBase string
	apiKey  string
}

// Config holds configuration for the scoring client.
type Config struct {
	Address string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a scoring client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("scoring address is required")
	}

	address := cfg.Address
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiBase: strings.TrimSuffix(address, "/"),
		apiKey:  cfg.APIKey,
	}, nil
}

type scoreRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score implements index.ScoringBackend. A non-2xx response or a score
// count mismatch fails the whole batch; the caller degrades per batch.
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	bodyBytes, err := json.Marshal(scoreRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal score body: %w", err)
	}

	url := c.apiBase + "/score"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("score failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	if len(parsed.Scores) != len(texts) {
		return nil, fmt.Errorf("score count mismatch: sent %d texts, got %d scores", len(texts), len(parsed.Scores))
	}
	return parsed.Scores, nil
}
