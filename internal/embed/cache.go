package embed

import (
	"context"

	"github.com/maypok86/otter"
)

const queryCacheSize = 1000

// cachedEmbedder wraps another Embedder with an LRU cache over single-text
// Embed() calls, per spec.md §4.3's caching note — query strings repeat far
// more than chunk passages, so only Embed (not EmbedBatch) is cached.
type cachedEmbedder struct {
	Embedder
	cache otter.Cache[string, []float32]
}

func withQueryCache(inner Embedder) Embedder {
	cache, err := otter.MustBuilder[string, []float32](queryCacheSize).Build()
	if err != nil {
		// Cache construction failure degrades to no caching rather than
		// blocking indexing/search.
		return inner
	}
	return &cachedEmbedder{Embedder: inner, cache: cache}
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	key := string(mode) + "\x00" + text
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := c.Embedder.Embed(ctx, text, mode)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, v)
	return v, nil
}
