package api

import (
	"context"
	"sync"
)

// =============================================================================
// QUOTE CACHE
// =============================================================================

// QuoteCache caches serialized quote responses keyed by loan terms.
// Implementations: store/rediscache (shared), MemoryQuoteCache (local).
type QuoteCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
}

// MemoryQuoteCache is a process-local QuoteCache used when no Redis
// address is configured, and in tests.
type MemoryQuoteCache struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{data: make(map[string]string)}
}

func (c *MemoryQuoteCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *MemoryQuoteCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
