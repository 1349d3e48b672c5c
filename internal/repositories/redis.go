package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/soundwave/internal/shared"
)

// DefaultRedisPrefix namespaces token keys in a shared Redis.
const DefaultRedisPrefix = "soundwave:token:"

// RedisTokenStore implements [TokenStore] with one Redis string per token.
// Keys carry no TTL; expiry is the API's concern.
type RedisTokenStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenStore creates a store using prefix for every key ([DefaultRedisPrefix] when empty).
func NewRedisTokenStore(client redis.UniversalClient, prefix string) *RedisTokenStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisTokenStore{client: client, prefix: prefix}
}

func (s *RedisTokenStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisTokenStore) Load(ctx context.Context, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.key(n)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis mget: %v", shared.ErrTokenStore, err)
	}

	for i, v := range values {
		// missing keys come back as nil
		if str, ok := v.(string); ok {
			out[names[i]] = str
		}
	}
	return out, nil
}

// Save writes every token in one MULTI/EXEC transaction.
func (s *RedisTokenStore) Save(ctx context.Context, tokens map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for name, value := range tokens {
			pipe.Set(ctx, s.key(name), value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis set: %v", shared.ErrTokenStore, err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.key(n)
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", shared.ErrTokenStore, err)
	}
	return nil
}
