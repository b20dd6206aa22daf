package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"adaptrag/internal/domain"
	"adaptrag/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force dot product.
// Vectors are assumed L2-normalized so the score is cosine similarity.
// With a path set, the contents survive restarts as a JSONL file.
type Storage struct {
	mu        sync.RWMutex
	path      string
	dimension int
	records   []vectorstore.Record
	byID      map[string]int
}

func NewStorage(path string) *Storage {
	return &Storage{path: path, byID: make(map[string]int)}
}

// Init prepares the store for vectors of the given dimension. Existing records
// are kept when their dimension matches.
func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) > 0 && s.dimension != dimension {
		return fmt.Errorf("%w: index has %d, want %d", vectorstore.ErrDimensionMismatch, s.dimension, dimension)
	}
	s.dimension = dimension
	return nil
}

// Upsert replaces records with a known ID and appends the others.
func (s *Storage) Upsert(_ context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(r.Vector), s.dimension)
		}
	}
	for _, r := range records {
		if i, ok := s.byID[r.ID]; ok {
			s.records[i] = r
			continue
		}
		s.byID[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.RetrievedUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.records))
	for i := range s.records {
		scores[i] = scored{idx: i, score: dot(s.records[i].Vector, vector)}
	}
	// stable so equal scores keep insertion order
	slices.SortStableFunc(scores, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	topK = min(topK, len(scores))
	results := make([]domain.RetrievedUnit, 0, topK)
	for _, sc := range scores[:topK] {
		c := s.records[sc.idx].Chunk
		results = append(results, domain.RetrievedUnit{
			Text:       c.Text,
			Source:     c.Source,
			Author:     c.Author,
			PageNumber: c.PageNumber,
			Section:    c.Section,
			Score:      sc.score,
		})
	}
	return results, nil
}

func (s *Storage) Stats(context.Context) (vectorstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Stats{VectorCount: len(s.records), Dimension: s.dimension}, nil
}

// Clear drops every record and removes the backing file when there is one.
func (s *Storage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[string]int)
	s.dimension = 0
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// entry is one JSONL line of the persisted index.
type entry struct {
	ID         string       `json:"id"`
	ChunkIndex int          `json:"chunk_index"`
	Chunk      domain.Chunk `json:"chunk"`
	Vector     []float32    `json:"vector"`
}

// Save writes all records to the configured path, one JSON object per line.
func (s *Storage) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range s.records {
		if err := enc.Encode(entry{ID: r.ID, ChunkIndex: r.ChunkIndex, Chunk: r.Chunk, Vector: r.Vector}); err != nil {
			return fmt.Errorf("write index entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}
	return nil
}

// Load reads the configured path. A missing file leaves the store empty.
func (s *Storage) Load() error {
	if s.path == "" {
		return nil
	}
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return s.read(f)
}

func (s *Storage) read(r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[string]int)
	s.dimension = 0
	dec := json.NewDecoder(r)
	for line := 1; ; line++ {
		var e entry
		if err := dec.Decode(&e); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("read index entry %d: %w", line, err)
		}
		if s.dimension == 0 {
			s.dimension = len(e.Vector)
		}
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("read index entry %d: %w", line, vectorstore.ErrDimensionMismatch)
		}
		s.byID[e.ID] = len(s.records)
		s.records = append(s.records, vectorstore.Record{ID: e.ID, Vector: e.Vector, Chunk: e.Chunk, ChunkIndex: e.ChunkIndex})
	}
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
