package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

// --- Mock implementations ---

// keywords maps words onto vector axes so that texts sharing a keyword are similar.
var keywords = []string{"cat", "dog", "car", "sun", "sea", "tree", "rain", "moon"}

func keywordVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = 0.01
	}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,?!")
		for i, k := range keywords {
			if word == k && i < dims {
				v[i]++
			}
		}
	}
	return v
}

// mockEmbeddingProvider implements driven.EmbeddingProvider for testing.
type mockEmbeddingProvider struct {
	mu    sync.Mutex
	dims  map[string]int
	calls []driven.EmbeddingRequest

	// errs is returned in call order; nil entries succeed.
	errs []error
	// extra is added to the number of vectors returned.
	extra int
	// dimDelta is added to the length of every vector returned.
	dimDelta int
	// onCall runs before each response.
	onCall func(req driven.EmbeddingRequest)
}

func newMockEmbeddingProvider() *mockEmbeddingProvider {
	return &mockEmbeddingProvider{dims: map[string]int{"small": 4, "large": 8}}
}

func (m *mockEmbeddingProvider) EmbedBatch(ctx context.Context, req driven.EmbeddingRequest) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	n := len(m.calls)
	var err error
	if n <= len(m.errs) {
		err = m.errs[n-1]
	}
	onCall := m.onCall
	m.mu.Unlock()

	if onCall != nil {
		onCall(req)
	}
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	dims := m.dims[req.Model] + m.dimDelta
	out := make([][]float32, 0, len(req.Inputs)+m.extra)
	for _, in := range req.Inputs {
		out = append(out, keywordVector(in, dims))
	}
	for i := 0; i < m.extra; i++ {
		out = append(out, keywordVector("", dims))
	}
	return out, nil
}

func (m *mockEmbeddingProvider) requests() []driven.EmbeddingRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.EmbeddingRequest(nil), m.calls...)
}

func (m *mockEmbeddingProvider) batchSizes() []int {
	var sizes []int
	for _, r := range m.requests() {
		sizes = append(sizes, len(r.Inputs))
	}
	return sizes
}

func (m *mockEmbeddingProvider) Name() string                 { return "mock" }
func (m *mockEmbeddingProvider) ModelName() string            { return "small" }
func (m *mockEmbeddingProvider) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingProvider) Close() error                 { return nil }

// mockChatProvider implements driven.ChatProvider for testing.
type mockChatProvider struct {
	mu       sync.Mutex
	reply    string
	errs     []error
	calls    int
	messages []domain.ChatMessage
	opts     domain.GenerationOptions
}

func (m *mockChatProvider) Chat(_ context.Context, messages []domain.ChatMessage, opts domain.GenerationOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = messages
	m.opts = opts
	if m.calls <= len(m.errs) && m.errs[m.calls-1] != nil {
		return "", m.errs[m.calls-1]
	}
	return m.reply, nil
}

func (m *mockChatProvider) ModelName() string            { return "mock-chat" }
func (m *mockChatProvider) Ping(_ context.Context) error { return nil }
func (m *mockChatProvider) Close() error                 { return nil }

// --- Helpers ---

func testModels() []domain.EmbeddingModel {
	return []domain.EmbeddingModel{
		{ID: "small", Name: "Small", Dimensions: 4},
		{ID: "large", Name: "Large", Dimensions: 8},
	}
}

func newTestRegistry() *ModelRegistry {
	r, err := NewModelRegistry(testModels(), "small")
	if err != nil {
		panic(err)
	}
	return r
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.NewErrorLog(10), resilience.WithSleep(noSleep))
}

func testPolicy() resilience.Policy {
	return resilience.Policy{MaxRetries: 2, BaseDelay: time.Millisecond}
}
