package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

func TestChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"pong"},"done":true}`))
	}))
	defer srv.Close()

	p := NewChatProvider(LLMConfig{BaseURL: srv.URL})
	reply, err := p.Chat(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "ping"}},
		domain.GenerationOptions{Temperature: domain.Float64(0.2)})
	require.NoError(t, err)

	assert.Equal(t, "pong", reply)
	assert.Equal(t, DefaultLLMModel, got.Model)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.2, got.Options.Temperature, 1e-9)
	assert.Equal(t, domain.DefaultMaxTokens, got.Options.NumPredict)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"llama runner process has terminated"}`))
	}))
	defer srv.Close()

	p := NewChatProvider(LLMConfig{BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "x"}}, domain.GenerationOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrTransient)
	assert.Contains(t, err.Error(), "llama runner")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewChatProvider(LLMConfig{BaseURL: srv.URL}).Ping(context.Background()))
}
