package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps the token under a single redis key without expiry
type RedisTokenStore struct {
	rdb *redis.Client
	key string
}

// NewRedisTokenStore creates a token store backed by redis
func NewRedisTokenStore(rdb *redis.Client, key string) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, key: key}
}

// GetToken retrieves the stored token
func (r *RedisTokenStore) GetToken(ctx context.Context) (string, error) {
	token, err := r.rdb.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// SaveToken stores the token
func (r *RedisTokenStore) SaveToken(ctx context.Context, token string) error {
	if err := r.rdb.Set(ctx, r.key, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// DeleteToken removes the token key
func (r *RedisTokenStore) DeleteToken(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
