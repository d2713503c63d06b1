package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// errorResponse is the non-2xx envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain sentinel errors to HTTP status codes and writes the
// error envelope. Anything unmapped is a 500 with a generic message — the
// wrapped detail goes to the log, not to the webhook sender.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadMessage), errors.Is(err, domain.ErrBadAddress):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnknownToken):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "unknown forwarding token"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "processing failed"})
	}
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
