package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/embed":
			var req ollamaEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotEmpty(t, req.Model)

			out := make([][]float32, len(req.Input))
			for i := range req.Input {
				vec := make([]float32, dims)
				vec[i%dims] = 2.0 // not unit length; the client normalizes
				out[i] = vec
			}
			_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: out})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOllamaEmbedder_BatchAndNormalization(t *testing.T) {
	srv := newFakeOllama(t, 8)
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "test-model"})
	vecs, err := e.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	for _, v := range vecs {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	}
}

func TestOllamaEmbedder_DimensionAutoDetect(t *testing.T) {
	srv := newFakeOllama(t, 16)
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "test-model"})
	assert.Equal(t, 0, e.Dimensions())

	_, err := e.Embed(context.Background(), "probe")
	require.NoError(t, err)
	assert.Equal(t, 16, e.Dimensions())
}

func TestOllamaEmbedder_Available(t *testing.T) {
	srv := newFakeOllama(t, 4)
	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "m"})
	assert.True(t, e.Available(context.Background()))

	srv.Close()
	assert.False(t, e.Available(context.Background()))
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{Host: srv.URL, Model: "missing"})
	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaEmbedder_ClosedErrors(t *testing.T) {
	e := NewOllamaEmbedder(OllamaConfig{Model: "m"})
	require.NoError(t, e.Close())
	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}
