package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileTokenStore keeps the token in a small JSON file readable only by the owner.
// The file maps the configured key to the token so it can hold other settings later.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileTokenStore creates a token store backed by the file at path
func NewFileTokenStore(path, key string) *FileTokenStore {
	return &FileTokenStore{path: path, key: key}
}

// DefaultTokenFilePath returns the token file location under the user config dir
func DefaultTokenFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, "imagefeed", "token.json"), nil
}

func (s *FileTokenStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return values, nil
}

func (s *FileTokenStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// GetToken returns the stored token
func (s *FileTokenStore) GetToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}

	token, ok := values[s.key]
	if !ok || token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// SaveToken writes the token to disk
func (s *FileTokenStore) SaveToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[s.key] = token
	return s.write(values)
}

// DeleteToken removes the token from disk
func (s *FileTokenStore) DeleteToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[s.key]; !ok {
		return nil
	}
	delete(values, s.key)
	return s.write(values)
}
