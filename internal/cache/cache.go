package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Ping(ctx context.Context) error
	SetJobLoadingStatus(ctx context.Context, id uuid.UUID, status string, ttl time.Duration) error
	GetJobLoadingStatus(ctx context.Context, id uuid.UUID) (string, bool, error)
	DeleteJobLoadingStatus(ctx context.Context, id uuid.UUID) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) SetJobLoadingStatus(ctx context.Context, id uuid.UUID, status string, ttl time.Duration) error {
	return c.client.Set(ctx, JobLoadingStatusKey(id), status, ttl).Err()
}

func (c *RedisCache) GetJobLoadingStatus(ctx context.Context, id uuid.UUID) (string, bool, error) {
	val, err := c.client.Get(ctx, JobLoadingStatusKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) DeleteJobLoadingStatus(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, JobLoadingStatusKey(id)).Err()
}

// IncrWithExpiry increments key and refreshes its expiry in one transaction.
func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
