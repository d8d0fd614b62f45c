package pack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "maquette:pack:"

// DefaultCacheTTL bounds how long assembled packs live in the shared
// tier.
const DefaultCacheTTL = 24 * time.Hour

// Cache memoizes assembled packs by their design+geometry identity
// (Pack.CacheKey). A small in-process LRU sits in front of an optional
// shared Redis tier; the cache is advisory, so shared-tier failures
// degrade to misses rather than errors. Entries whose schema major
// differs from the current one are ignored, which keeps stale packs
// from older assemblers out of gate evaluations.
type Cache struct {
	local   *lru.Cache[string, *Pack]
	shared  *redis.Client
	ttl     time.Duration
	version string
	log     *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats counts cache traffic since construction.
type CacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Stats returns a snapshot of cache traffic and local occupancy.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.local.Len(),
	}
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithRedisClient attaches a shared Redis tier.
func WithRedisClient(client *redis.Client) CacheOption {
	return func(c *Cache) { c.shared = client }
}

// WithCacheTTL overrides the shared-tier entry lifetime.
func WithCacheTTL(d time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = d }
}

// WithCacheLogger sets the cache's logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.log = l }
}

// NewCache constructs a pack cache holding up to size entries locally.
func NewCache(size int, opts ...CacheOption) (*Cache, error) {
	local, err := lru.New[string, *Pack](size)
	if err != nil {
		return nil, fmt.Errorf("pack: cache init: %w", err)
	}
	c := &Cache{
		local:   local,
		ttl:     DefaultCacheTTL,
		version: SchemaVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c, nil
}

// Get returns the cached pack for a cache key (Pack.CacheKey), if any.
func (c *Cache) Get(ctx context.Context, key string) (*Pack, bool) {
	if p, ok := c.local.Get(key); ok {
		c.hits.Add(1)
		return p, true
	}
	if c.shared == nil {
		c.misses.Add(1)
		return nil, false
	}

	raw, err := c.shared.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("pack cache read failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}

	var p Pack
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.Warn("pack cache entry corrupt", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	ok, err := CompatibleSchema(c.version, p.SchemaVersion)
	if err != nil || !ok {
		c.log.Debug("pack cache entry from incompatible schema",
			"key", key, "stored", p.SchemaVersion, "current", c.version)
		c.misses.Add(1)
		return nil, false
	}

	c.local.Add(key, &p)
	c.hits.Add(1)
	return &p, true
}

// Put stores a pack in both tiers under its cache key. Packs without
// both hashes are ignored.
func (c *Cache) Put(ctx context.Context, p *Pack) {
	if p == nil || p.DesignHash == "" || p.GeometryHash == "" {
		return
	}
	key := p.CacheKey()
	c.local.Add(key, p)
	if c.shared == nil {
		return
	}

	raw, err := json.Marshal(p)
	if err != nil {
		c.log.Warn("pack cache serialize failed", "key", key, "error", err)
		return
	}
	if err := c.shared.Set(ctx, cacheKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("pack cache write failed", "key", key, "error", err)
	}
}
