package vectorstore

import (
	"context"
	"errors"

	"adaptrag/internal/domain"
)

var (
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// DefaultUpsertBatch is how many records are written per request.
const DefaultUpsertBatch = 100

// Record is one vector with the chunk metadata persisted next to it.
// ChunkIndex is the position of the chunk in its ingestion run.
type Record struct {
	ID         string
	Vector     []float32
	Chunk      domain.Chunk
	ChunkIndex int
}

// Stats describes the index contents.
type Stats struct {
	VectorCount int `json:"vector_count"`
	Dimension   int `json:"dimension"`
}

// Storage persists vectors and supports similarity search. Search results are
// ordered by descending score.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedUnit, error)
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
}

// Records pairs chunks with their vectors, using the chunk ID as record ID.
func Records(chunks []domain.Chunk, vectors [][]float32, offset int) ([]Record, error) {
	if len(chunks) != len(vectors) {
		return nil, errors.New("chunks and vectors length mismatch")
	}
	out := make([]Record, len(chunks))
	for i := range chunks {
		out[i] = Record{ID: chunks[i].ChunkID, Vector: vectors[i], Chunk: chunks[i], ChunkIndex: offset + i}
	}
	return out, nil
}
