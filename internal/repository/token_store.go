package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/tracker/pkg/cache"
	"github.com/Payphone-Digital/tracker/pkg/redis"
)

// RedisTokenStore keeps single-use purpose tokens in Redis
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.SetString(ctx, s.client.Key(key), value, ttl)
}

func (s *RedisTokenStore) Consume(ctx context.Context, key, value string) (bool, error) {
	return s.client.CompareAndDelete(ctx, s.client.Key(key), value)
}

// MemoryTokenStore keeps single-use purpose tokens in process memory.
// Tokens do not survive restarts and are not shared between replicas.
type MemoryTokenStore struct {
	cache *cache.Cache
}

func NewMemoryTokenStore(c *cache.Cache) *MemoryTokenStore {
	return &MemoryTokenStore{cache: c}
}

func (s *MemoryTokenStore) Save(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryTokenStore) Consume(ctx context.Context, key, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.cache.CompareAndDelete(key, value), nil
}
