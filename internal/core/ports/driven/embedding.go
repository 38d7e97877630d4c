package driven

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// EmbeddingRequest is one batch sent to an embedding provider.
type EmbeddingRequest struct {
	// Model is the model id to run. Providers fall back to their configured model when empty.
	Model string

	// Inputs are the texts to embed, in order.
	Inputs []string

	// Pooling reduces token-level output to one vector per input.
	Pooling domain.Pooling

	// Normalize asks the provider for unit-length vectors.
	Normalize bool

	// WaitForModel asks the provider to block while a cold model loads.
	WaitForModel bool

	// UseCache allows the provider to serve cached results.
	UseCache bool
}

// EmbeddingProvider generates vector embeddings from text.
//
// Implementations return errors classified with the resilience package so
// callers can decide whether to retry.
//
// Implementations include:
//   - Hugging Face feature-extraction (sentence-transformers, BGE)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingProvider interface {
	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, req EmbeddingRequest) ([][]float32, error)

	// Name identifies the provider in logs and errors.
	Name() string

	// ModelName returns the configured default model.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
