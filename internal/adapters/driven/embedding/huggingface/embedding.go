// Package huggingface provides an embedding provider backed by the Hugging
// Face feature-extraction inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	DefaultModel   = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the Hugging Face embedding provider.
type Config struct {
	// APIKey is the Hugging Face access token (required).
	APIKey string

	// BaseURL is the models endpoint. The pipeline path is appended per model.
	BaseURL string

	// Model is the default model when a request names none.
	Model string

	// Timeout bounds each HTTP exchange.
	Timeout time.Duration

	// HTTPClient replaces the default client. Used by tests.
	HTTPClient *http.Client
}

// EmbeddingProvider calls the feature-extraction pipeline.
type EmbeddingProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type requestOptions struct {
	WaitForModel bool   `json:"wait_for_model"`
	UseCache     bool   `json:"use_cache"`
	Pooling      string `json:"pooling,omitempty"`
	Normalize    bool   `json:"normalize"`
}

type embedRequest struct {
	Inputs  []string       `json:"inputs"`
	Options requestOptions `json:"options"`
}

// NewEmbeddingProvider creates a Hugging Face embedding provider.
func NewEmbeddingProvider(cfg Config) (*EmbeddingProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("huggingface: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &EmbeddingProvider{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// EmbedBatch embeds all inputs in a single request.
//
// Sentence-level responses are returned as is. Token-level responses are
// pooled locally with the requested strategy.
func (p *EmbeddingProvider) EmbedBatch(ctx context.Context, req driven.EmbeddingRequest) ([][]float32, error) {
	if len(req.Inputs) == 0 {
		return nil, nil
	}
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(embedRequest{
		Inputs: req.Inputs,
		Options: requestOptions{
			WaitForModel: req.WaitForModel,
			UseCache:     req.UseCache,
			Pooling:      string(req.Pooling),
			Normalize:    req.Normalize,
		},
	})
	if err != nil {
		return nil, resilience.Client(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.pipelineURL(model), bytes.NewReader(body))
	if err != nil {
		return nil, resilience.Client(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	if req.WaitForModel {
		httpReq.Header.Set("X-Wait-For-Model", "true")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, resilience.FromTransportError(ctx, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Transient(fmt.Errorf("read response: %w", err))
	}
	if err := resilience.FromHTTPStatus(resp.StatusCode, resp.Header, raw); err != nil {
		return nil, err
	}

	vectors, err := decodeFeatures(raw, len(req.Inputs), req.Pooling)
	if err != nil {
		return nil, resilience.Protocol(fmt.Errorf("huggingface %s: %w", model, err))
	}
	return vectors, nil
}

// Name identifies the provider.
func (p *EmbeddingProvider) Name() string {
	return "huggingface"
}

// ModelName returns the default model.
func (p *EmbeddingProvider) ModelName() string {
	return p.model
}

// Ping checks the model endpoint is reachable and the token is accepted.
func (p *EmbeddingProvider) Ping(ctx context.Context) error {
	_, err := p.EmbedBatch(ctx, driven.EmbeddingRequest{
		Inputs:  []string{"ping"},
		Pooling: domain.PoolingMean,
	})
	if err != nil {
		return fmt.Errorf("huggingface: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *EmbeddingProvider) Close() error {
	return nil
}

func (p *EmbeddingProvider) pipelineURL(model string) string {
	segments := strings.Split(model, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p.baseURL + "/" + strings.Join(segments, "/") + "/pipeline/feature-extraction"
}

// decodeFeatures accepts the three shapes the pipeline returns: one vector
// (single input), one vector per input, or one matrix of token vectors per input.
func decodeFeatures(raw []byte, inputs int, pooling domain.Pooling) ([][]float32, error) {
	var sentences [][]float32
	if err := json.Unmarshal(raw, &sentences); err == nil {
		return sentences, nil
	}

	var tokens [][][]float32
	if err := json.Unmarshal(raw, &tokens); err == nil {
		out := make([][]float32, len(tokens))
		for i, t := range tokens {
			v, err := pool(t, pooling)
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}

	var single []float32
	if err := json.Unmarshal(raw, &single); err == nil && inputs == 1 {
		return [][]float32{single}, nil
	}

	return nil, fmt.Errorf("unexpected feature-extraction response: %.80s", raw)
}

// pool reduces token vectors to one vector.
func pool(tokens [][]float32, pooling domain.Pooling) ([]float32, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no token vectors")
	}
	dims := len(tokens[0])
	for _, t := range tokens {
		if len(t) != dims {
			return nil, &domain.DimensionMismatchError{Expected: dims, Actual: len(t)}
		}
	}

	out := make([]float32, dims)
	switch pooling {
	case domain.PoolingCLS:
		copy(out, tokens[0])
	case domain.PoolingMax:
		copy(out, tokens[0])
		for _, t := range tokens[1:] {
			for i, v := range t {
				if v > out[i] {
					out[i] = v
				}
			}
		}
	default:
		for _, t := range tokens {
			for i, v := range t {
				out[i] += v
			}
		}
		n := float32(len(tokens))
		for i := range out {
			out[i] /= n
		}
	}
	return out, nil
}
