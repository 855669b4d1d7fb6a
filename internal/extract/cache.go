package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/legal-intake/constants"
)

const DefaultCacheSize = 256

// Cache holds extraction results keyed by content hash and extension.
// The oldest entry is evicted once the cap is reached.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]Result
	order   []string
}

func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{max: max, entries: make(map[string]Result, max)}
}

// CacheKey is "<sha256 hex>:<ext>".
func CacheKey(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + ":" + constants.NormalizeExt(ext)
}

func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *Cache) Put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = r
		return
	}
	for len(c.order) >= c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[key] = r
	c.order = append(c.order, key)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CachedExtractor memoizes another TextExtractor. Results of cancelled calls
// and unsupported outcomes are not stored.
type CachedExtractor struct {
	inner  TextExtractor
	cache  *Cache
	logger *slog.Logger
}

func NewCachedExtractor(inner TextExtractor, cache *Cache, logger *slog.Logger) *CachedExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewCache(DefaultCacheSize)
	}
	return &CachedExtractor{inner: inner, cache: cache, logger: logger}
}

func (c *CachedExtractor) Extract(ctx context.Context, data []byte, ext, fileName string) Result {
	key := CacheKey(data, ext)
	if r, ok := c.cache.Get(key); ok {
		c.logger.Debug("extract.cache.hit", "file", fileName, "method", r.Method)
		return r
	}
	r := c.inner.Extract(ctx, data, ext, fileName)
	if ctx.Err() != nil || r.Method.IsUnsupported() {
		c.logger.Debug("extract.cache.skip", "file", fileName, "method", r.Method, "ctx_err", ctx.Err())
		return r
	}
	c.cache.Put(key, r)
	return r
}
