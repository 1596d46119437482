package api

import (
	"net/http"

	"github.com/andreas-roehler/hindsight/internal/observability"
)

// Routes builds the API route table with request ID middleware applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search", h.Search)
	mux.HandleFunc("GET /api/agents", h.Agents)
	mux.HandleFunc("GET /healthz", h.Health)
	return observability.RequestIDMiddleware(mux)
}
