package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"imagefeed/internal/repository"

	"github.com/rs/zerolog/log"
)

// RequireToken rejects requests while no access token is stored
func RequireToken(tokens repository.TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := tokens.GetToken(r.Context())
			if errors.Is(err, repository.ErrTokenNotFound) {
				respondError(w, "login required", http.StatusUnauthorized)
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("Failed to read token")
				respondError(w, "failed to read token", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
