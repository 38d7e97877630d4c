package services

import (
	"context"
	"fmt"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driving"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

// DefaultBatchSize is the number of texts sent per embedding request.
const DefaultBatchSize = 10

type embedOptions struct {
	model        string
	batchSize    int
	pooling      domain.Pooling
	normalize    bool
	waitForModel bool
	useCache     bool
}

// EmbedOption configures a single Embed call.
type EmbedOption func(*embedOptions)

// WithModel embeds with the given model instead of the active one.
func WithModel(id string) EmbedOption {
	return func(o *embedOptions) {
		o.model = id
	}
}

// WithBatchSize sets how many texts go in each request.
func WithBatchSize(n int) EmbedOption {
	return func(o *embedOptions) {
		o.batchSize = n
	}
}

// WithPooling sets the token pooling strategy.
func WithPooling(p domain.Pooling) EmbedOption {
	return func(o *embedOptions) {
		o.pooling = p
	}
}

// WithNormalize controls unit-length normalisation of the results.
func WithNormalize(normalize bool) EmbedOption {
	return func(o *embedOptions) {
		o.normalize = normalize
	}
}

// WithCache allows the provider to serve cached embeddings.
func WithCache(useCache bool) EmbedOption {
	return func(o *embedOptions) {
		o.useCache = useCache
	}
}

// EmbeddingClient turns texts into embedding vectors through a provider,
// batching requests and retrying transient failures.
type EmbeddingClient struct {
	provider driven.EmbeddingProvider
	models   driving.ModelService
	exec     *resilience.Executor
	policy   resilience.Policy
	defaults []EmbedOption
}

// NewEmbeddingClient creates an embedding client. The policy always allows
// at least one retry.
func NewEmbeddingClient(
	provider driven.EmbeddingProvider,
	models driving.ModelService,
	exec *resilience.Executor,
	policy resilience.Policy,
) *EmbeddingClient {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	return &EmbeddingClient{
		provider: provider,
		models:   models,
		exec:     exec,
		policy:   policy,
	}
}

// SetDefaults sets options applied to every call before the per-call options.
func (c *EmbeddingClient) SetDefaults(opts ...EmbedOption) {
	c.defaults = opts
}

// Embed returns one vector per text, in order.
//
// Texts are sent in consecutive batches, one request per batch, one batch at
// a time. A response with the wrong number of vectors, or a vector whose
// length differs from the model's declared dimensions, fails the whole call
// with a protocol error; no partial results are returned.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string, opts ...EmbedOption) ([]domain.EmbeddingVector, error) {
	if c.provider == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	o := embedOptions{
		batchSize:    DefaultBatchSize,
		pooling:      domain.PoolingMean,
		normalize:    true,
		waitForModel: true,
	}
	for _, opt := range c.defaults {
		opt(&o)
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 {
		o.batchSize = DefaultBatchSize
	}
	if !o.pooling.IsValid() {
		return nil, fmt.Errorf("%w: unknown pooling %q", domain.ErrInvalidInput, o.pooling)
	}

	model := c.models.Active()
	if o.model != "" {
		var err error
		if model, err = c.models.Get(o.model); err != nil {
			return nil, err
		}
	}
	if model.ID == "" {
		return nil, fmt.Errorf("%w: no active embedding model", domain.ErrModelNotFound)
	}

	logger.Debug("Embedding %d texts with %s (batch size %d)", len(texts), model.ID, o.batchSize)

	out := make([]domain.EmbeddingVector, 0, len(texts))
	for start := 0; start < len(texts); start += o.batchSize {
		end := min(start+o.batchSize, len(texts))
		vectors, err := c.embedBatch(ctx, model, texts[start:end], start, o)
		if err != nil {
			return nil, fmt.Errorf("embed texts %d..%d of %d: %w", start, end-1, len(texts), err)
		}
		for _, v := range vectors {
			if o.normalize {
				domain.Normalize(v)
			}
			out = append(out, domain.EmbeddingVector{Values: v, Dimensions: len(v), ModelID: model.ID})
		}
	}
	return out, nil
}

// EmbedOne embeds a single text.
func (c *EmbeddingClient) EmbedOne(ctx context.Context, text string, opts ...EmbedOption) (domain.EmbeddingVector, error) {
	vectors, err := c.Embed(ctx, []string{text}, opts...)
	if err != nil {
		return domain.EmbeddingVector{}, err
	}
	return vectors[0], nil
}

func (c *EmbeddingClient) embedBatch(
	ctx context.Context, model domain.EmbeddingModel, batch []string, offset int, o embedOptions,
) ([][]float32, error) {
	req := driven.EmbeddingRequest{
		Model:        model.ID,
		Inputs:       batch,
		Pooling:      o.pooling,
		Normalize:    o.normalize,
		WaitForModel: o.waitForModel,
		UseCache:     o.useCache,
	}

	return resilience.Execute(ctx, c.exec, "embed", c.policy, func(ctx context.Context) ([][]float32, error) {
		vectors, err := c.provider.EmbedBatch(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, resilience.Protocolf("%s returned %d vectors for %d inputs",
				c.provider.Name(), len(vectors), len(batch))
		}
		for i, v := range vectors {
			if len(v) != model.Dimensions {
				return nil, resilience.Protocol(fmt.Errorf("text %d: %w", offset+i,
					&domain.DimensionMismatchError{Expected: model.Dimensions, Actual: len(v)}))
			}
		}
		return vectors, nil
	})
}
