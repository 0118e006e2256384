package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisTokenKey = "storefront:session:tokens"

// RedisStore persists the token pair in Redis. Used by kiosk fleets where
// several storefront daemons share one signed-in device identity.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context) (StoredTokens, error) {
	fields, err := s.rdb.HGetAll(ctx, redisTokenKey).Result()
	if err != nil {
		return StoredTokens{}, fmt.Errorf("load tokens from redis: %w", err)
	}

	tokens := StoredTokens{
		Access:  fields["access"],
		Refresh: fields["refresh"],
	}
	if tokens.Access == "" {
		return StoredTokens{}, ErrNoToken
	}
	return tokens, nil
}

func (s *RedisStore) Save(ctx context.Context, tokens StoredTokens) error {
	err := s.rdb.HSet(ctx, redisTokenKey, map[string]any{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
	}).Err()
	if err != nil {
		return fmt.Errorf("save tokens to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, redisTokenKey).Err(); err != nil {
		return fmt.Errorf("clear tokens from redis: %w", err)
	}
	return nil
}
