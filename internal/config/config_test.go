package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should return defaults for a missing file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
		assert.Equal(t, 200, cfg.Chunker.ChunkOverlap)
		assert.Equal(t, 5, cfg.Retrieval.TopK)
		assert.Equal(t, "gpt-4o", cfg.Generator.Model)
		assert.InDelta(t, 0.7, cfg.Generator.Temperature, 1e-9)
	})

	t.Run("Should keep defaults for keys absent from the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 8\ngenerator:\n  temperature: 0\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Retrieval.TopK)
		assert.Equal(t, 4000, cfg.Retrieval.MaxContextTokens)
		assert.Zero(t, cfg.Generator.Temperature)
		assert.Equal(t, "tfidf", cfg.Embedder.Type)
	})

	t.Run("Should fill provider defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		yaml := "embedder:\n  type: openai\nvector_store:\n  type: qdrant\n  qdrant:\n    url: http://localhost:6333\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Embedder.OpenAI)
		assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
		assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
		assert.Equal(t, "dyslexia-research", cfg.VectorStore.Qdrant.Collection)
		assert.Equal(t, 15, cfg.VectorStore.Qdrant.TimeoutSecs)
	})

	t.Run("Should reject an invalid window", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunker:\n  chunk_size: 100\n  chunk_overlap: 100\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "chunk_overlap")
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"embedder":   func(c *AppConfig) { c.Embedder.Type = "bert" },
		"store":      func(c *AppConfig) { c.VectorStore.Type = "pinecone" },
		"qdrant":     func(c *AppConfig) { c.VectorStore.Type = "qdrant" },
		"provider":   func(c *AppConfig) { c.Generator.Provider = "anthropic" },
		"tokenizer":  func(c *AppConfig) { c.Retrieval.Tokenizer = "bpe" },
		"top_k":      func(c *AppConfig) { c.Retrieval.TopK = 0 },
		"size":       func(c *AppConfig) { c.Chunker.ChunkSize = 0 },
		"summarizer": func(c *AppConfig) { c.Summarizer.Type = "lexrank" },
	}
	for name, mutate := range cases {
		t.Run("Should reject invalid "+name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("Should accept defaults", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}

func TestSave(t *testing.T) {
	t.Run("Should round trip through yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		cfg := Default()
		cfg.Course.ExamplesFile = "examples.json"
		require.NoError(t, Save(path, cfg))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})
}
