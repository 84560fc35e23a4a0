package repository

import (
	"context"
	"errors"
	"sync"
)

// ErrTokenNotFound is returned when no access token is stored
var ErrTokenNotFound = errors.New("access token not found")

// TokenStore persists the single access token of the session
type TokenStore interface {
	// GetToken returns the stored token or ErrTokenNotFound
	GetToken(ctx context.Context) (string, error)

	// SaveToken replaces the stored token
	SaveToken(ctx context.Context, token string) error

	// DeleteToken removes the stored token. Deleting a missing token is not an error.
	DeleteToken(ctx context.Context) error
}

// MemoryTokenStore keeps the token in process memory
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore creates an empty in-memory token store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// GetToken returns the stored token
func (s *MemoryTokenStore) GetToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", ErrTokenNotFound
	}
	return s.token, nil
}

// SaveToken stores the token
func (s *MemoryTokenStore) SaveToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	return nil
}

// DeleteToken clears the token
func (s *MemoryTokenStore) DeleteToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	return nil
}
