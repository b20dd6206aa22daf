// Package langchain adapts langchaingo embedders to the embedding.Embedder
// interface, giving access to every provider langchaingo supports.
package langchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

type Adapter struct {
	name      string
	dimension int
	impl      embeddings.Embedder
}

// Config selects the provider model used through langchaingo.
type Config struct {
	Model     string
	BaseURL   string
	APIKey    string
	Dimension int
	BatchSize int
}

// New builds an OpenAI-compatible langchaingo embedder.
func New(cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("langchain embedder: api key is required")
	}
	opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithEmbeddingModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain embedder: %w", err)
	}
	eopts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if cfg.BatchSize > 0 {
		eopts = append(eopts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	impl, err := embeddings.NewEmbedder(llm, eopts...)
	if err != nil {
		return nil, fmt.Errorf("langchain embedder: %w", err)
	}
	return Wrap("langchain:"+cfg.Model, cfg.Dimension, impl), nil
}

// Wrap adapts an existing langchaingo embedder.
func Wrap(name string, dimension int, impl embeddings.Embedder) *Adapter {
	return &Adapter{name: name, dimension: dimension, impl: impl}
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Prepare([]string) error { return nil }

func (a *Adapter) Dimension() int { return a.dimension }

func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: %w", a.name, err)
	}
	a.observe(v)
	return v, nil
}

func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: %w", a.name, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder %q: got %d vectors for %d inputs", a.name, len(vecs), len(texts))
	}
	if len(vecs) > 0 {
		a.observe(vecs[0])
	}
	return vecs, nil
}

func (a *Adapter) observe(v []float32) {
	if a.dimension == 0 {
		a.dimension = len(v)
	}
}
