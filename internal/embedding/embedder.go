package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input in the same order. It fails as
	// a whole; callers wanting per-item recovery go through a Batcher.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CorpusBound is implemented by embedders whose vector space is derived from
// the corpus passed to Prepare. Vectors from two Prepare calls are not
// comparable, so an index built with them has to be rebuilt from scratch.
type CorpusBound interface {
	CorpusBound() bool
}

// IsCorpusBound reports whether emb re-derives its vector space on Prepare.
func IsCorpusBound(emb Embedder) bool {
	cb, ok := emb.(CorpusBound)
	return ok && cb.CorpusBound()
}
