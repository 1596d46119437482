package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	hserrors "github.com/andreas-roehler/hindsight/pkg/errors"
)

// ErrorResponse is the error envelope for all API errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes the error payload.
type ErrorDetail struct {
	Message  string `json:"message"`
	Type     string `json:"type"`
	Strategy string `json:"strategy,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errType,
		},
	})
}

func (h *Handler) writeRetrievalError(w http.ResponseWriter, status int, err error) {
	var re *hserrors.RetrievalError
	if !errors.As(err, &re) {
		h.writeError(w, status, "internal_error", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Message:  re.Message,
			Type:     re.Type,
			Strategy: re.Strategy,
		},
	})
}
