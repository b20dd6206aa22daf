package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"adaptrag/internal/domain"
	"adaptrag/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	collection string
	dimension  int
	client     *resty.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		})
	if cfg.APIKey != "" {
		client.SetHeader("api-key", cfg.APIKey)
	}
	return &Storage{collection: cfg.Collection, client: client}
}

// PointID maps a chunk ID onto the UUID Qdrant requires, deterministically,
// so re-ingesting a document overwrites its points.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

// Init creates the collection. If it already exists with a matching size this
// is a no-op; index lifecycle beyond that is left to the operator.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	s.dimension = dimension
	st, err := s.Stats(ctx)
	if err == nil && st.Dimension > 0 {
		if st.Dimension != dimension {
			return fmt.Errorf("%w: collection %s has %d, want %d", vectorstore.ErrDimensionMismatch, s.collection, st.Dimension, dimension)
		}
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, "/collections/"+s.collection, body, nil)
}

func (s *Storage) Upsert(ctx context.Context, records []vectorstore.Record) error {
	points := make([]map[string]any, len(records))
	for i, r := range records {
		if s.dimension > 0 && len(r.Vector) != s.dimension {
			return vectorstore.ErrDimensionMismatch
		}
		points[i] = map[string]any{
			"id":     PointID(r.ID),
			"vector": r.Vector,
			"payload": map[string]any{
				"chunk_id":    r.Chunk.ChunkID,
				"chunk_index": r.ChunkIndex,
				"text":        r.Chunk.Text,
				"source":      r.Chunk.Source,
				"author":      r.Chunk.Author,
				"page_number": r.Chunk.PageNumber,
				"section":     r.Chunk.Section,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", body, nil)
}

type payload struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	Author     string `json:"author"`
	PageNumber int    `json:"page_number"`
	Section    string `json:"section"`
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedUnit, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.RetrievedUnit, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.RetrievedUnit{
			Text:       r.Payload.Text,
			Source:     r.Payload.Source,
			Author:     r.Payload.Author,
			PageNumber: r.Payload.PageNumber,
			Section:    r.Payload.Section,
			Score:      r.Score,
		})
	}
	return results, nil
}

func (s *Storage) Stats(ctx context.Context) (vectorstore.Stats, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil, &resp); err != nil {
		return vectorstore.Stats{}, err
	}
	return vectorstore.Stats{
		VectorCount: resp.Result.PointsCount,
		Dimension:   resp.Result.Config.Params.Vectors.Size,
	}, nil
}

// Clear drops the collection. A missing collection is not an error.
func (s *Storage) Clear(ctx context.Context) error {
	err := s.do(ctx, http.MethodDelete, "/collections/"+s.collection, nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil
	}
	return err
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %s", e.Method, e.Path, e.Status)
}

func (s *Storage) do(ctx context.Context, method, path string, body, out any) error {
	req := s.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out).ForceContentType("application/json")
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode(), Status: resp.Status()}
	}
	return nil
}
