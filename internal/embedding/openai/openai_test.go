package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	c, err := NewClient(Config{BaseURL: url, APIKeyEnv: "TEST_OPENAI_KEY", MaxRetries: 2, Backoff: time.Millisecond})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("Should require the API key variable", func(t *testing.T) {
		_, err := NewClient(Config{APIKeyEnv: "ADAPTRAG_UNSET_KEY_FOR_TEST"})
		assert.ErrorContains(t, err, "ADAPTRAG_UNSET_KEY_FOR_TEST")
	})
}

func TestClientEmbedBatch(t *testing.T) {
	t.Run("Should order vectors by response index", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/embeddings", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			var req embeddingsRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"a", "b"}, req.Input)
			assert.Equal(t, DefaultModel, req.Model)
			_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1,0]},{"index":0,"embedding":[1,0,0]}]}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL)
		vecs, err := c.EmbedBatch(t.Context(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vecs)
		assert.Equal(t, 3, c.Dimension())
	})

	t.Run("Should retry rate limited requests", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5]}]}`))
		}))
		defer srv.Close()

		v, err := newTestClient(t, srv.URL).Embed(t.Context(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5}, v)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("Should not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).Embed(t.Context(), "hello")
		assert.ErrorContains(t, err, "400")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Should reject a short response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).EmbedBatch(t.Context(), []string{"a"})
		assert.Error(t, err)
	})
}
