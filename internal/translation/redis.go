// apps/go-server/internal/translation/redis.go
//
// Redis-backed translation cache (go-redis), shared across server instances.
// Keys are "translation:" + Key.String().

package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "translation:"

// RedisCache shares translations across server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client; ttl of zero means entries never expire.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// DialRedis connects and pings addr.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("translation: redis ping: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, k Key) (string, bool, error) {
	v, err := c.client.Get(ctx, redisPrefix+k.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, k Key, body string) error {
	return c.client.Set(ctx, redisPrefix+k.String(), body, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, k Key) error {
	return c.client.Del(ctx, redisPrefix+k.String()).Err()
}
