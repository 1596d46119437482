// Package api provides HTTP handlers for the hindsight query surface.
package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/andreas-roehler/hindsight/internal/observability"
	"github.com/andreas-roehler/hindsight/internal/retrieval"
	hserrors "github.com/andreas-roehler/hindsight/pkg/errors"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Handler handles HTTP requests for the retrieval API.
type Handler struct {
	engine *retrieval.Engine
	store  index.FactStore
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(engine *retrieval.Engine, store index.FactStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// SearchRequest is the POST /api/search request body.
type SearchRequest struct {
	Query          string   `json:"query"`
	AgentID        string   `json:"agent_id"`
	FactTypes      []string `json:"fact_type,omitempty"`
	ThinkingBudget int      `json:"thinking_budget"`
	MaxResults     int      `json:"max_results"`
	Trace          bool     `json:"trace"`
}

// SearchResponse is the POST /api/search response body.
type SearchResponse struct {
	Results []types.SearchResult `json:"results"`
	Trace   *types.Trace         `json:"trace,omitempty"`
}

// AgentsResponse is the GET /api/agents response body.
type AgentsResponse struct {
	Agents []string `json:"agents"`
}

const (
	defaultThinkingBudget = 100
	defaultMaxResults     = 10
	maxRequestBody        = 1 << 20
)

// Search handles POST /api/search requests.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", observability.RequestIDFromContext(r.Context()))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}
	defer r.Body.Close()

	var req SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Query == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	if req.ThinkingBudget == 0 {
		req.ThinkingBudget = defaultThinkingBudget
	}
	if req.MaxResults == 0 {
		req.MaxResults = defaultMaxResults
	}

	factTypes := make([]types.FactType, len(req.FactTypes))
	for i, ft := range req.FactTypes {
		factTypes[i] = types.FactType(ft)
	}

	resp, err := h.engine.Retrieve(r.Context(), retrieval.Request{
		AgentID:    req.AgentID,
		Query:      req.Query,
		FactTypes:  factTypes,
		Budget:     req.ThinkingBudget,
		MaxResults: req.MaxResults,
		WantTrace:  req.Trace,
	})
	if err != nil {
		switch {
		case hserrors.IsValidation(err):
			h.writeRetrievalError(w, http.StatusBadRequest, err)
		case hserrors.IsTotalFailure(err):
			logger.Error("retrieval unavailable", "agent_id", req.AgentID, "error", err)
			h.writeRetrievalError(w, http.StatusServiceUnavailable, err)
		default:
			logger.Error("search failed", "agent_id", req.AgentID, "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		}
		return
	}

	results := resp.Results
	if results == nil {
		results = []types.SearchResult{}
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Trace:   resp.Trace,
	})
}

// Agents handles GET /api/agents requests.
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.Agents(r.Context())
	if err != nil {
		h.logger.Error("list agents failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal_error", "list agents failed")
		return
	}
	if agents == nil {
		agents = []string{}
	}
	h.writeJSON(w, http.StatusOK, AgentsResponse{Agents: agents})
}

// Health handles GET /healthz requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response failed", "error", err)
	}
}
