package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/core"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// fakeServer answers /v1/embeddings with vectors built by fn.
func fakeServer(t *testing.T, calls *atomic.Int32, fn func(req embeddingRequest) ([]embeddingData, int)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data, status := fn(req)
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func vectorsFor(req embeddingRequest, dim int) []embeddingData {
	out := make([]embeddingData, len(req.Input))
	for i := range req.Input {
		v := make([]float32, dim)
		v[i%dim] = 1
		out[i] = embeddingData{Object: "embedding", Embedding: v, Index: i}
	}
	return out
}

func testConfig(host string, dim int) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithAPIKey("sk-test"),
		ai.WithModel("text-embedding-3-small"),
		ai.WithDimension(dim),
	)
}

func TestNewEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig())
	assert.ErrorIs(t, err, ai.ErrMissingAPIKey)

	_, err = NewProvider(ai.NewConfig())
	assert.ErrorIs(t, err, ai.ErrMissingAPIKey)
}

func TestEmbedder_EmbedText(t *testing.T) {
	var calls atomic.Int32
	var seen []string
	srv := fakeServer(t, &calls, func(req embeddingRequest) ([]embeddingData, int) {
		seen = append(seen, req.Input...)
		assert.Equal(t, "text-embedding-3-small", req.Model)
		return vectorsFor(req, 4), http.StatusOK
	})

	e, err := NewEmbedder(testConfig(srv.URL, 4))
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "java\ndeveloper")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec)
	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, seen, 1)
	assert.NotContains(t, seen[0], "\n")
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, &calls, func(req embeddingRequest) ([]embeddingData, int) {
		return vectorsFor(req, 3), http.StatusOK
	})

	e, err := NewEmbedder(testConfig(srv.URL, 3))
	require.NoError(t, err)

	vecs, err := e.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{0, 1, 0}, vecs[1])
}

func TestEmbedder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		dim     int
		respond func(req embeddingRequest) ([]embeddingData, int)
		wantErr error
	}{
		{
			name:    "server error",
			dim:     4,
			respond: func(req embeddingRequest) ([]embeddingData, int) { return nil, http.StatusInternalServerError },
		},
		{
			name:    "unauthorized",
			dim:     4,
			respond: func(req embeddingRequest) ([]embeddingData, int) { return nil, http.StatusUnauthorized },
		},
		{
			name:    "wrong dimension",
			dim:     8,
			respond: func(req embeddingRequest) ([]embeddingData, int) { return vectorsFor(req, 4), http.StatusOK },
			wantErr: ErrUnexpectedDimension,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := fakeServer(t, &calls, tt.respond)

			e, err := NewEmbedder(testConfig(srv.URL, tt.dim))
			require.NoError(t, err)

			_, err = e.EmbedText(context.Background(), "query")
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrEmbeddingProvider)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestEmbedder_CancelledContext(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, &calls, func(req embeddingRequest) ([]embeddingData, int) {
		return vectorsFor(req, 4), http.StatusOK
	})

	e, err := NewEmbedder(testConfig(srv.URL, 4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.EmbedText(ctx, "query")
	assert.ErrorIs(t, err, core.ErrEmbeddingProvider)
}

func TestProvider(t *testing.T) {
	p, err := NewProvider(testConfig("http://localhost:1", 4))
	require.NoError(t, err)
	assert.NotNil(t, p.Embedder())
	assert.NoError(t, p.Close())
}
