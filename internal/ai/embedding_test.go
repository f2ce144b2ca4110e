package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer echoes one vector per input; the first component encodes
// the input's position in the request so order can be asserted.
func embeddingServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(len(req.Input[i]))
			data[i] = item{Embedding: vec}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func newTestEmbedder(t *testing.T, baseURL string, dim int) *Embedder {
	t.Helper()
	client := NewOpenAICompatibleClient(5 * time.Second)
	e, err := NewEmbedder(client, EmbeddingConfig{BaseURL: baseURL, Model: "test-embed"}, dim)
	require.NoError(t, err)
	return e
}

func TestNewEmbedderRejectsBadDimension(t *testing.T) {
	client := NewOpenAICompatibleClient(time.Second)
	_, err := NewEmbedder(client, EmbeddingConfig{}, 0)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmbedOne(t *testing.T) {
	srv := embeddingServer(t, 4)
	defer srv.Close()

	e := newTestEmbedder(t, srv.URL, 4)
	vec, err := e.EmbedOne(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbedBatchPreservesOrderAcrossBatches(t *testing.T) {
	srv := embeddingServer(t, 4)
	defer srv.Close()

	// 25 inputs forces three requests of 10/10/5.
	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("%0*d", i+1, 0) // length i+1
	}

	e := newTestEmbedder(t, srv.URL, 4)
	vecs, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 25)
	for i, v := range vecs {
		assert.Equal(t, float32(len(texts[i])), v[0], "vector %d out of order", i)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	e := newTestEmbedder(t, "http://127.0.0.1:1", 4)
	vecs, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedDimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, 3)
	defer srv.Close()

	e := newTestEmbedder(t, srv.URL, 4)
	_, err := e.EmbedOne(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmbedBackendDownIsUnavailable(t *testing.T) {
	e := newTestEmbedder(t, "http://127.0.0.1:1", 4)
	_, err := e.EmbedOne(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestEmbedBackendErrorStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := newTestEmbedder(t, srv.URL, 4)
	_, err := e.EmbedOne(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}
