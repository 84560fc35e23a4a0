package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"imagefeed/internal/api"
	"imagefeed/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends v as a JSON body
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// respondServiceError maps a session error to an HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrMissingToken):
		respondError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, api.ErrInvalidRequest):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrSuperseded), errors.Is(err, services.ErrDuplicateRequest):
		respondError(w, err.Error(), http.StatusConflict)
	case api.StatusCode(err) != 0:
		respondError(w, fmt.Sprintf("upstream returned status %d", api.StatusCode(err)), http.StatusBadGateway)
	case errors.Is(err, api.ErrTransport), errors.Is(err, api.ErrDecoding):
		respondError(w, err.Error(), http.StatusBadGateway)
	default:
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}
