// Package rediscache provides a Redis-backed cache for amortization
// schedule quotes. Quotes are pure functions of the loan terms, so cached
// entries never need invalidation; a TTL keeps the keyspace bounded.
package rediscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// Cache wraps a Redis client behind the api.QuoteCache contract.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr string) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    defaultTTL,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
