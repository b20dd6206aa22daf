package qdrant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptrag/internal/domain"
	"adaptrag/internal/vectorstore"
)

func TestPointID(t *testing.T) {
	assert.Equal(t, PointID("doc.pdf_page1_chunk0"), PointID("doc.pdf_page1_chunk0"))
	assert.NotEqual(t, PointID("doc.pdf_page1_chunk0"), PointID("doc.pdf_page1_chunk1"))
}

func TestStorage(t *testing.T) {
	t.Run("Should create a missing collection with cosine distance", func(t *testing.T) {
		var created map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/collections/docs", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("api-key"))
			switch r.Method {
			case http.MethodGet:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
				_, _ = w.Write([]byte(`{"result":true}`))
			}
		}))
		defer srv.Close()

		s := NewStorage(Config{URL: srv.URL, APIKey: "secret", Collection: "docs"})
		require.NoError(t, s.Init(t.Context(), 3))
		vectors := created["vectors"].(map[string]any)
		assert.Equal(t, float64(3), vectors["size"])
		assert.Equal(t, "Cosine", vectors["distance"])
	})

	t.Run("Should refuse a collection with another dimension", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"result":{"points_count":4,"config":{"params":{"vectors":{"size":8}}}}}`))
		}))
		defer srv.Close()

		err := NewStorage(Config{URL: srv.URL, Collection: "docs"}).Init(t.Context(), 3)
		assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	})

	t.Run("Should send chunk metadata as payload", func(t *testing.T) {
		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "true", r.URL.Query().Get("wait"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"result":{}}`))
		}))
		defer srv.Close()

		s := NewStorage(Config{URL: srv.URL, Collection: "docs"})
		chunk := domain.Chunk{ChunkID: "a_page2_chunk0", Text: "body", Source: "a.pdf", Author: "Jane", PageNumber: 2, Section: "Results"}
		require.NoError(t, s.Upsert(t.Context(), []vectorstore.Record{{ID: chunk.ChunkID, Vector: []float32{1}, Chunk: chunk, ChunkIndex: 7}}))
		require.Len(t, body.Points, 1)
		assert.Equal(t, PointID("a_page2_chunk0"), body.Points[0].ID)
		assert.Equal(t, "Results", body.Points[0].Payload["section"])
		assert.Equal(t, float64(7), body.Points[0].Payload["chunk_index"])
	})

	t.Run("Should decode search results in order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/collections/docs/points/search", r.URL.Path)
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.9,"payload":{"text":"first","source":"a.pdf","author":"Jane","page_number":3,"section":"Intro"}},
				{"score":0.4,"payload":{"text":"second","source":"b.pdf","page_number":1}}
			]}`))
		}))
		defer srv.Close()

		res, err := NewStorage(Config{URL: srv.URL, Collection: "docs"}).Search(t.Context(), []float32{1}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, domain.RetrievedUnit{Text: "first", Source: "a.pdf", Author: "Jane", PageNumber: 3, Section: "Intro", Score: 0.9}, res[0])
		assert.Equal(t, "second", res[1].Text)
	})

	t.Run("Should ignore a missing collection on clear", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		assert.NoError(t, NewStorage(Config{URL: srv.URL, Collection: "docs"}).Clear(t.Context()))
	})
}
