package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "walletledger:cache:"

// Cache is a string key/value cache in Redis. Keys are namespaced so
// the cache can share a database with other tenants.
type Cache struct {
	client redis.UniversalClient
	prefix string
}

// NewCache creates a new Cache.
func NewCache(client redis.UniversalClient) *Cache {
	return &Cache{
		client: client,
		prefix: cachePrefix,
	}
}

// Get retrieves a value by key. A missing key yields redis.Nil.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.prefix+key).Result()
}

// GetMany retrieves values for keys. Missing keys are absent from the result.
func (c *Cache) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.prefix + key
	}

	values, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		if s, ok := v.(string); ok {
			found[keys[i]] = s
		}
	}

	return found, nil
}

// SetMany stores values in one round trip.
func (c *Cache) SetMany(ctx context.Context, values map[string]string, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, c.prefix+key, value, ttl)
		}
		return nil
	})

	return err
}

// IsMiss reports whether err means the key was not cached.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
