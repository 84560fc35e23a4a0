package services

import (
	"context"
	"fmt"
	"sync"

	"imagefeed/internal/api"

	"github.com/rs/zerolog/log"
)

// TokenExchanger swaps an authorization code for an access token
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// AuthService exchanges authorization codes, at most one at a time
type AuthService struct {
	api TokenExchanger

	mu       sync.Mutex
	lastCode string
	flight   flight
}

// NewAuthService creates a new auth service
func NewAuthService(exchanger TokenExchanger) *AuthService {
	return &AuthService{api: exchanger}
}

// ExchangeCode exchanges code for an access token.
// A code equal to the one currently in flight is rejected with ErrDuplicateRequest.
// A different code cancels the in-flight exchange, whose caller then gets ErrSuperseded.
// Persisting the token is left to the caller.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", api.ErrInvalidRequest)
	}

	s.mu.Lock()
	if s.lastCode == code {
		s.mu.Unlock()
		log.Warn().Msg("Authorization code is already being exchanged")
		return "", ErrDuplicateRequest
	}
	reqCtx, gen := s.flight.start(ctx)
	s.lastCode = code
	s.mu.Unlock()

	token, err := s.api.ExchangeCode(reqCtx, code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.flight.finish(gen) {
		log.Debug().Msg("Discarding superseded token exchange result")
		return "", ErrSuperseded
	}
	s.lastCode = ""

	if err != nil {
		log.Error().Err(err).Msg("Failed to exchange authorization code")
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	log.Info().Msg("Authorization code exchanged")
	return token, nil
}
