package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"adaptrag/internal/assembler"
	"adaptrag/internal/chunker"
	"adaptrag/internal/config"
	"adaptrag/internal/embedding"
	"adaptrag/internal/embedding/langchain"
	"adaptrag/internal/embedding/openai"
	"adaptrag/internal/embedding/tfidf"
	"adaptrag/internal/extract"
	"adaptrag/internal/generation"
	"adaptrag/internal/service"
	"adaptrag/internal/tokens"
	"adaptrag/internal/vectorstore"
	"adaptrag/internal/vectorstore/memory"
	"adaptrag/internal/vectorstore/qdrant"
)

type loader interface {
	Load() error
}

// index groups the components shared by ingestion and querying.
type index struct {
	embedder  embedding.Embedder
	batcher   *embedding.Batcher
	store     vectorstore.Storage
	truncator tokens.Truncator
	loaders   []loader
}

func buildIndex(cfg *config.AppConfig) (*index, error) {
	tok, err := tokens.New(cfg.Retrieval.Tokenizer, cfg.Retrieval.Encoding)
	if err != nil {
		return nil, err
	}
	idx := &index{truncator: tok}

	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf":
		fb := tfidf.FileBacked{Embedder: tfidf.NewEmbedder(cfg.Embedder.MaxFeatures), Path: cfg.Embedder.ModelPath}
		idx.loaders = append(idx.loaders, fb)
		emb = fb
	case "openai":
		o := cfg.Embedder.OpenAI
		emb, err = openai.NewClient(openai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Dimension:  o.Dimension,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries: o.MaxRetries,
		})
	case "langchain":
		o := cfg.Embedder.OpenAI
		emb, err = langchain.New(langchain.Config{
			Model:     o.Model,
			BaseURL:   o.BaseURL,
			APIKey:    os.Getenv(o.APIKeyEnv),
			Dimension: o.Dimension,
			BatchSize: cfg.Embedder.BatchSize,
		})
	default:
		err = fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}
	if cfg.Embedder.CacheSize > 0 {
		if emb, err = embedding.NewCached(emb, cfg.Embedder.CacheSize); err != nil {
			return nil, err
		}
	}
	idx.embedder = emb
	idx.batcher = embedding.NewBatcher(emb, embedding.BatcherOptions{
		BatchSize:      cfg.Embedder.BatchSize,
		Pause:          time.Duration(cfg.Embedder.BatchPauseMs) * time.Millisecond,
		MaxInputTokens: cfg.Embedder.MaxInputTokens,
		Truncator:      tok,
	})

	switch cfg.VectorStore.Type {
	case "memory":
		st := memory.NewStorage(cfg.VectorStore.Path)
		idx.loaders = append(idx.loaders, st)
		idx.store = st
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		idx.store = qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     os.Getenv(q.APIKeyEnv),
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	return idx, nil
}

// load restores persisted local state before querying an existing index.
func (i *index) load() error {
	for _, l := range i.loaders {
		if err := l.Load(); err != nil {
			return fmt.Errorf("load index: %w", err)
		}
	}
	return nil
}

func buildIngest(cfg *config.AppConfig, idx *index) (*service.IngestService, error) {
	ch, err := chunker.NewDocumentChunker(chunker.Options{
		ChunkSize:      cfg.Chunker.ChunkSize,
		ChunkOverlap:   cfg.Chunker.ChunkOverlap,
		LegacyOrdinals: cfg.Chunker.LegacyOrdinals,
	})
	if err != nil {
		return nil, err
	}
	return service.NewIngestService(newRegistry(cfg), ch, idx.embedder, idx.batcher, idx.store, service.IndexOptions{
		UpsertBatch: cfg.VectorStore.UpsertBatch,
		Reset:       cfg.VectorStore.Reset,
	}), nil
}

func newRegistry(cfg *config.AppConfig) *extract.Registry {
	r := extract.NewRegistry()
	for _, ext := range cfg.Ingest.TextExtensions {
		r.Register(ext, extract.TextExtractor{})
	}
	return r
}

func buildOrchestrator(cfg *config.AppConfig, idx *index) (*service.Orchestrator, error) {
	gen, err := generation.New(generation.Config{
		Provider: cfg.Generator.Provider,
		Model:    cfg.Generator.Model,
		BaseURL:  cfg.Generator.BaseURL,
		APIKey:   os.Getenv(cfg.Generator.APIKeyEnv),
	})
	if err != nil {
		return nil, fmt.Errorf("generator init failed: %w", err)
	}
	return service.NewOrchestrator(
		service.NewRetriever(idx.batcher, idx.store),
		assembler.New(idx.truncator),
		gen,
		service.QueryOptions{
			TopK:             cfg.Retrieval.TopK,
			MaxContextTokens: cfg.Retrieval.MaxContextTokens,
			Temperature:      cfg.Generator.Temperature,
			MaxTokens:        cfg.Generator.MaxTokens,
			Language:         cfg.Generator.Language,
		},
	)
}

// assistant is the query side exposed to the interactive mode.
type assistant struct {
	*service.Orchestrator
	store vectorstore.Storage
}

func (a assistant) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return a.store.Stats(ctx)
}
