package replystore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder generates text embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CachedEmbedder remembers the embeddings of recently seen texts.
type CachedEmbedder struct {
	base  Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps base with an LRU cache of size entries.
func NewCachedEmbedder(base Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = 1000
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &CachedEmbedder{base: base, cache: cache}, nil
}

// Embed returns the cached embedding of text or computes it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	values, err := e.base.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, values)
	return values, nil
}
