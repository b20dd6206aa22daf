package embedding

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes vectors by exact input text. Query embeddings repeat a lot in
// interactive sessions, so this mostly saves round trips at query time.
type Cached struct {
	Embedder
	cache *lru.Cache[string, []float32]
}

func NewCached(emb Embedder, size int) (*Cached, error) {
	if size <= 0 {
		return nil, fmt.Errorf("embedder %q: cache size must be greater than zero", emb.Name())
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: init cache: %w", emb.Name(), err)
	}
	return &Cached{Embedder: emb, cache: c}, nil
}

// Prepare drops every cached vector since the vector space may change.
func (c *Cached) Prepare(corpus []string) error {
	c.cache.Purge()
	return c.Embedder.Prepare(corpus)
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return clone(v), nil
	}
	v, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, clone(v))
	return v, nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var idx []int
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = clone(v)
			continue
		}
		missing = append(missing, t)
		idx = append(idx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := c.Embedder.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder %q: got %d vectors for %d inputs", c.Name(), len(vecs), len(missing))
	}
	for j, v := range vecs {
		out[idx[j]] = v
		c.cache.Add(missing[j], clone(v))
	}
	return out, nil
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// Save persists the wrapped embedder's state when it has any.
func (c *Cached) Save() error {
	if s, ok := c.Embedder.(interface{ Save() error }); ok {
		return s.Save()
	}
	return nil
}

func (c *Cached) CorpusBound() bool { return IsCorpusBound(c.Embedder) }
