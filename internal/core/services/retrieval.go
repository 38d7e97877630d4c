package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// DefaultTopK is the number of documents retrieved when the caller gives none.
const DefaultTopK = 5

// NoContextMarker stands in for the context block when nothing was retrieved.
const NoContextMarker = "No relevant context found."

// Prompts holds the system prompts used to frame a query.
type Prompts struct {
	// Grounded is used when context was retrieved.
	Grounded string

	// NoContext is used when nothing relevant was found.
	NoContext string
}

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() Prompts {
	return Prompts{Grounded: groundedSystemPrompt, NoContext: noContextSystemPrompt}
}

// LoadPrompts reads user overrides from store, keeping the built-in prompt
// for any that cannot be loaded.
func LoadPrompts(store driven.PromptStore) Prompts {
	p := DefaultPrompts()
	if store == nil {
		return p
	}
	if s, err := store.Load(driven.PromptGroundedSystem); err == nil && strings.TrimSpace(s) != "" {
		p.Grounded = s
	} else if err != nil {
		logger.Debug("Using built-in grounded prompt: %v", err)
	}
	if s, err := store.Load(driven.PromptNoContextSystem); err == nil && strings.TrimSpace(s) != "" {
		p.NoContext = s
	} else if err != nil {
		logger.Debug("Using built-in no-context prompt: %v", err)
	}
	return p
}

const groundedSystemPrompt = `You are a helpful assistant answering questions about the user's documents.
Use the provided context to answer the question.
If the context does not contain the answer, say you are not sure instead of guessing.
Return just the answer, without repeating the question or the context.`

const noContextSystemPrompt = `You are a helpful assistant.
No documents relevant to the question were found.
Answer from general knowledge and say that the answer is not based on the user's documents.
If you are not sure, say so. Return just the answer.`

// RetrievalOrchestrator answers queries by retrieving similar documents and
// grounding a generated answer on them.
type RetrievalOrchestrator struct {
	embedder  *EmbeddingClient
	index     driven.VectorIndex
	docs      driven.DocumentStore
	generator *GenerationClient
	router    *CapabilityRouter
	prompts   Prompts
}

// NewRetrievalOrchestrator creates an orchestrator. A nil router uses the default capabilities.
func NewRetrievalOrchestrator(
	embedder *EmbeddingClient,
	index driven.VectorIndex,
	docs driven.DocumentStore,
	generator *GenerationClient,
	router *CapabilityRouter,
) *RetrievalOrchestrator {
	if router == nil {
		router = NewCapabilityRouter()
	}
	return &RetrievalOrchestrator{
		embedder:  embedder,
		index:     index,
		docs:      docs,
		generator: generator,
		router:    router,
		prompts:   DefaultPrompts(),
	}
}

// SetPrompts replaces the system prompts.
func (o *RetrievalOrchestrator) SetPrompts(p Prompts) {
	o.prompts = p
}

// Retrieve returns the topK documents most similar to query.
// A failure to embed the query is fatal. Hits whose document is no longer
// stored are skipped.
func (o *RetrievalOrchestrator) Retrieve(ctx context.Context, query string, topK int) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	logger.Debug("Query: %q, topK: %d", query, topK)

	qv, err := o.embedder.EmbedOne(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions (%s)", qv.Dimensions, qv.ModelID)

	hits, err := o.index.Search(ctx, qv, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	result := make(domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		doc, err := o.docs.GetDocument(ctx, hit.DocumentID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Indexed document %s is missing from the store, skipping", hit.DocumentID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("hydrate %s: %w", hit.DocumentID, err)
		}
		logger.Debug("  %.4f %s", hit.Score, hit.DocumentID)
		result = append(result, domain.ScoredDocument{Document: *doc, Score: hit.Score})
	}
	return result, nil
}

// Answer retrieves context for query and generates a grounded answer.
//
// When nothing is retrieved the model is told so, the answer is flagged
// NoContext and GroundedOn is empty. Generation failures are returned as
// errors; a context-only answer is never substituted.
func (o *RetrievalOrchestrator) Answer(
	ctx context.Context, query string, topK int, opts domain.GenerationOptions,
) (*domain.GeneratedAnswer, error) {
	result, err := o.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	capability := o.router.Select(query)
	logger.Debug("Capability: %s", capability.Kind)

	if opts.Temperature == nil {
		opts.Temperature = domain.Float64(domain.DefaultRetrievalTemperature)
	}

	logger.Section("Generation")
	text, err := o.generator.Generate(ctx, o.prompts.Build(query, result, capability), opts)
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.GeneratedAnswer{
		Text:       text,
		GroundedOn: result.DocumentIDs(),
		NoContext:  len(result) == 0,
		Capability: capability.Kind,
		Sources:    result,
	}, nil
}

// BuildPrompt assembles the messages for a query with the built-in prompts.
func BuildPrompt(query string, result domain.RetrievalResult, capability Capability) []domain.ChatMessage {
	return DefaultPrompts().Build(query, result, capability)
}

// Build assembles the system and user messages for a query.
// Document contents are joined by blank lines in the order given.
func (p Prompts) Build(query string, result domain.RetrievalResult, capability Capability) []domain.ChatMessage {
	system := p.Grounded
	contextText := NoContextMarker
	if len(result) == 0 {
		system = p.NoContext
	} else {
		parts := make([]string, len(result))
		for i, sd := range result {
			parts[i] = strings.TrimSpace(sd.Document.Content)
		}
		contextText = strings.Join(parts, "\n\n")
	}
	if capability.Instruction != "" {
		system += "\n" + capability.Instruction
	}

	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, strings.TrimSpace(query))

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: user},
	}
}
