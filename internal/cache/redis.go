package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache wraps the Redis client with the operations the engine uses.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ctx: context.Background(),
	}
}

// Get retrieves a value. A missing key returns (nil, nil).
func (c *RedisCache) Get(key string) ([]byte, error) {
	val, err := c.client.Get(c.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(c.ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(key string) error {
	return c.client.Del(c.ctx, key).Err()
}

func (c *RedisCache) Exists(key string) bool {
	count, _ := c.client.Exists(c.ctx, key).Result()
	return count > 0
}

func (c *RedisCache) SetAdd(key string, members ...interface{}) error {
	return c.client.SAdd(c.ctx, key, members...).Err()
}

func (c *RedisCache) SetRemove(key string, members ...interface{}) error {
	return c.client.SRem(c.ctx, key, members...).Err()
}

func (c *RedisCache) SetMembers(key string) ([]string, error) {
	return c.client.SMembers(c.ctx, key).Result()
}

func (c *RedisCache) Ping() error {
	return c.client.Ping(c.ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
