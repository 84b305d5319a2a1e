package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/princinho/sahoaccounts/config"
)

// RedisCache is the production SessionCache. TTL enforcement is
// delegated to Redis; there are no multi-key operations.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg *config.Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisCache{client: client}
}

// Ping checks connectivity at startup.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisCache) Put(ctx context.Context, userID string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, userID, data, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, userID string) ([]byte, error) {
	data, err := r.client.Get(ctx, userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Del(ctx, userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
