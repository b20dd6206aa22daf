package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptrag/internal/domain"
	"adaptrag/internal/vectorstore"
)

func record(id string, v ...float32) vectorstore.Record {
	return vectorstore.Record{ID: id, Vector: v, Chunk: domain.Chunk{ChunkID: id, Text: "text " + id, Source: "doc.pdf", PageNumber: 1, Section: "Content"}}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject a non-positive dimension", func(t *testing.T) {
		assert.ErrorIs(t, NewStorage("").Init(ctx, 0), vectorstore.ErrInvalidDimension)
	})

	t.Run("Should reject vectors of the wrong size", func(t *testing.T) {
		s := NewStorage("")
		require.NoError(t, s.Init(ctx, 2))
		err := s.Upsert(ctx, []vectorstore.Record{record("a", 1, 0, 0)})
		assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	})

	t.Run("Should rank by descending score and honor topK", func(t *testing.T) {
		s := NewStorage("")
		require.NoError(t, s.Init(ctx, 2))
		require.NoError(t, s.Upsert(ctx, []vectorstore.Record{
			record("low", 0, 1),
			record("high", 1, 0),
			record("mid", 0.7, 0.7),
		}))
		res, err := s.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "text high", res[0].Text)
		assert.Equal(t, "text mid", res[1].Text)
		assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	})

	t.Run("Should keep records across Init with the same dimension", func(t *testing.T) {
		s := NewStorage("")
		require.NoError(t, s.Init(ctx, 2))
		require.NoError(t, s.Upsert(ctx, []vectorstore.Record{record("a", 1, 0)}))
		require.NoError(t, s.Init(ctx, 2))
		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, st.VectorCount)
		assert.ErrorIs(t, s.Init(ctx, 3), vectorstore.ErrDimensionMismatch)
	})

	t.Run("Should replace records that share an id", func(t *testing.T) {
		s := NewStorage("")
		require.NoError(t, s.Init(ctx, 2))
		require.NoError(t, s.Upsert(ctx, []vectorstore.Record{record("a", 1, 0)}))
		require.NoError(t, s.Upsert(ctx, []vectorstore.Record{record("a", 0, 1)}))
		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, vectorstore.Stats{VectorCount: 1, Dimension: 2}, st)
	})

	t.Run("Should persist and reload through JSONL", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index", "vectors.jsonl")
		s := NewStorage(path)
		require.NoError(t, s.Init(ctx, 2))
		require.NoError(t, s.Upsert(ctx, []vectorstore.Record{record("a", 1, 0), record("b", 0, 1)}))
		require.NoError(t, s.Save())

		loaded := NewStorage(path)
		require.NoError(t, loaded.Load())
		st, err := loaded.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, vectorstore.Stats{VectorCount: 2, Dimension: 2}, st)
		res, err := loaded.Search(ctx, []float32{0, 1}, 1)
		require.NoError(t, err)
		assert.Equal(t, "text b", res[0].Text)

		require.NoError(t, loaded.Clear(ctx))
		assert.NoFileExists(t, path)
	})

	t.Run("Should treat a missing file as an empty index", func(t *testing.T) {
		s := NewStorage(filepath.Join(t.TempDir(), "missing.jsonl"))
		require.NoError(t, s.Load())
		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, st.VectorCount)
	})
}

func TestRecords(t *testing.T) {
	_, err := vectorstore.Records([]domain.Chunk{{ChunkID: "a"}}, nil, 0)
	assert.Error(t, err)

	recs, err := vectorstore.Records([]domain.Chunk{{ChunkID: "a"}, {ChunkID: "b"}}, [][]float32{{1}, {2}}, 10)
	require.NoError(t, err)
	assert.Equal(t, "b", recs[1].ID)
	assert.Equal(t, 11, recs[1].ChunkIndex)
}
