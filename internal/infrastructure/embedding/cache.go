package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/ports"
)

const DefaultCacheSize = 4096

type cacheEntry struct {
	vector   domain.Vector
	cachedAt time.Time
}

// Cache decorates an EmbeddingProvider with a bounded, concurrency-safe LRU
// keyed by content hash and model id. A hit short-circuits all downstream
// work. The cache is constructed once per process and injected, never held in
// package state, so tests can build isolated instances.
type Cache struct {
	provider ports.EmbeddingProvider
	entries  *lru.Cache[string, cacheEntry]

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCache(provider ports.EmbeddingProvider, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{provider: provider, entries: entries}, nil
}

func (c *Cache) ModelID() string { return c.provider.ModelID() }

func (c *Cache) Remote() bool { return c.provider.Remote() }

func (c *Cache) Embed(ctx context.Context, text string) (domain.Vector, error) {
	key := cacheKey(text, c.provider.ModelID())
	if entry, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return entry.vector, nil
	}

	vector, err := c.provider.Embed(ctx, text)
	if err != nil {
		// Failures are not cached; the next attempt may succeed.
		return nil, err
	}

	c.misses.Add(1)
	c.entries.Add(key, cacheEntry{vector: vector, cachedAt: time.Now().UTC()})
	return vector, nil
}

func (c *Cache) CacheStats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}

func (c *Cache) Len() int { return c.entries.Len() }

func cacheKey(text, modelID string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + modelID))
	return hex.EncodeToString(sum[:])
}
