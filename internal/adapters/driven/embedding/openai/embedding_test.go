package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

func newTestProvider(t *testing.T, cfg Config, handler http.HandlerFunc) *EmbeddingProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL
	p, err := NewEmbeddingProvider(cfg)
	require.NoError(t, err)
	return p
}

func TestNewEmbeddingProvider_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingProvider(Config{})
	assert.Error(t, err)
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	var got embeddingRequest
	p := newTestProvider(t, Config{Dimensions: 2}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	})

	vectors, err := p.EmbedBatch(context.Background(), driven.EmbeddingRequest{Inputs: []string{"a", "b"}})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 2, got.Dimensions)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestEmbedBatch_DimensionsOnlyForV3(t *testing.T) {
	var got embeddingRequest
	p := newTestProvider(t, Config{Dimensions: 256}, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})

	_, err := p.EmbedBatch(context.Background(), driven.EmbeddingRequest{
		Model: "text-embedding-ada-002", Inputs: []string{"a"},
	})
	require.NoError(t, err)
	assert.Zero(t, got.Dimensions)
}

func TestEmbedBatch_MissingResult(t *testing.T) {
	p := newTestProvider(t, Config{}, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})

	_, err := p.EmbedBatch(context.Background(), driven.EmbeddingRequest{Inputs: []string{"a", "b"}})
	assert.ErrorIs(t, err, resilience.ErrProtocol)
}

func TestEmbedBatch_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, resilience.ErrClient},
		{http.StatusTooManyRequests, resilience.ErrRateLimited},
		{http.StatusBadGateway, resilience.ErrTransient},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestProvider(t, Config{}, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"x"}}`))
			})

			_, err := p.EmbedBatch(context.Background(), driven.EmbeddingRequest{Inputs: []string{"a"}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestPing(t *testing.T) {
	p := newTestProvider(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	assert.NoError(t, p.Ping(context.Background()))
}
