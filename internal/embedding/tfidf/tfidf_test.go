package tfidf

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"dyslexic students benefit from audio support",
	"reading fluency improves with repeated reading",
	"audio books support reading for dyslexic learners",
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("Should refuse to embed before preparation", func(t *testing.T) {
		_, err := NewEmbedder(0).Embed(ctx, "text")
		assert.ErrorIs(t, err, ErrNotPrepared)
	})

	t.Run("Should produce unit vectors ranking related text higher", func(t *testing.T) {
		e := NewEmbedder(0)
		require.NoError(t, e.Prepare(corpus))
		q, err := e.Embed(ctx, "audio support for dyslexic students")
		require.NoError(t, err)
		docs, err := e.EmbedBatch(ctx, corpus)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.InDelta(t, 1.0, dot(docs[0], docs[0]), 1e-5)
		assert.Greater(t, dot(q, docs[0]), dot(q, docs[1]))
	})

	t.Run("Should return a zero vector for unknown words", func(t *testing.T) {
		e := NewEmbedder(0)
		require.NoError(t, e.Prepare(corpus))
		v, err := e.Embed(ctx, "zzz qqq")
		require.NoError(t, err)
		assert.Len(t, v, e.Dimension())
		assert.Zero(t, dot(v, v))
	})

	t.Run("Should cap the vocabulary size", func(t *testing.T) {
		e := NewEmbedder(3)
		require.NoError(t, e.Prepare(corpus))
		assert.Equal(t, 3, e.Dimension())
	})

	t.Run("Should round trip through Save and Load", func(t *testing.T) {
		e := NewEmbedder(0)
		require.NoError(t, e.Prepare(corpus))
		var buf bytes.Buffer
		require.NoError(t, e.Save(&buf))

		loaded := NewEmbedder(0)
		require.NoError(t, loaded.Load(&buf))
		want, err := e.Embed(ctx, corpus[1])
		require.NoError(t, err)
		got, err := loaded.Embed(ctx, corpus[1])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "tfidf.json")
	e := NewEmbedder(0)
	require.NoError(t, e.Prepare(corpus))
	require.NoError(t, FileBacked{Embedder: e, Path: path}.Save())

	missing := FileBacked{Embedder: NewEmbedder(0), Path: path + ".missing"}
	require.NoError(t, missing.Load())
	assert.Zero(t, missing.Dimension())

	loaded := FileBacked{Embedder: NewEmbedder(0), Path: path}
	require.NoError(t, loaded.Load())
	assert.Equal(t, e.Dimension(), loaded.Dimension())
}
