package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTokenStore keeps the token as one row of a key/value table
type PostgresTokenStore struct {
	db  *pgxpool.Pool
	key string
}

// NewPostgresTokenStore creates a token store backed by PostgreSQL
func NewPostgresTokenStore(db *pgxpool.Pool, key string) *PostgresTokenStore {
	return &PostgresTokenStore{db: db, key: key}
}

// EnsureSchema creates the settings table if it does not exist
func (r *PostgresTokenStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS client_settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create client_settings table: %w", err)
	}
	return nil
}

// GetToken retrieves the stored token
func (r *PostgresTokenStore) GetToken(ctx context.Context) (string, error) {
	query := `SELECT value FROM client_settings WHERE key = $1`

	var token string
	err := r.db.QueryRow(ctx, query, r.key).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// SaveToken upserts the token
func (r *PostgresTokenStore) SaveToken(ctx context.Context, token string) error {
	query := `
		INSERT INTO client_settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := r.db.Exec(ctx, query, r.key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// DeleteToken removes the token row
func (r *PostgresTokenStore) DeleteToken(ctx context.Context) error {
	query := `DELETE FROM client_settings WHERE key = $1`
	if _, err := r.db.Exec(ctx, query, r.key); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
