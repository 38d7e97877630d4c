// Package ollama provides an embedding provider using a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

// Ensure EmbeddingProvider implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingProvider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Ollama embedding provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model used when a request names none.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// EmbeddingProvider generates embeddings using Ollama.
type EmbeddingProvider struct {
	client  *http.Client
	baseURL string
	model   string
}

// embedRequest is the /api/embed request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbeddingProvider creates a new Ollama embedding provider.
func NewEmbeddingProvider(cfg Config) *EmbeddingProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &EmbeddingProvider{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// EmbedBatch embeds all inputs in one /api/embed call.
func (p *EmbeddingProvider) EmbedBatch(ctx context.Context, req driven.EmbeddingRequest) ([][]float32, error) {
	if len(req.Inputs) == 0 {
		return nil, nil
	}
	model := req.Model
	if model == "" {
		model = p.model
	}

	jsonBody, err := json.Marshal(embedRequest{Model: model, Input: req.Inputs})
	if err != nil {
		return nil, resilience.Client(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, resilience.Client(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, resilience.FromTransportError(ctx, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Transient(fmt.Errorf("read response: %w", err))
	}
	if err := resilience.FromHTTPStatus(resp.StatusCode, resp.Header, body); err != nil {
		return nil, err
	}

	var embedResp embedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, resilience.Protocol(fmt.Errorf("decode response: %w", err))
	}
	return embedResp.Embeddings, nil
}

// Name identifies the provider.
func (p *EmbeddingProvider) Name() string {
	return string(domain.AIProviderOllama)
}

// ModelName returns the name of the embedding model being used.
func (p *EmbeddingProvider) ModelName() string {
	return p.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (p *EmbeddingProvider) Ping(ctx context.Context) error {
	return ping(ctx, p.client, p.baseURL)
}

// Close releases resources.
func (p *EmbeddingProvider) Close() error {
	return nil
}

func ping(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", resilience.FromTransportError(ctx, err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if err := resilience.FromHTTPStatus(resp.StatusCode, resp.Header, body); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}
