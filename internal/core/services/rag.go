package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driving"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// RAGService is the collaborator-facing facade of the retrieval core.
type RAGService struct {
	docs         driven.DocumentStore
	index        driven.VectorIndex
	models       driving.ModelService
	embedder     *EmbeddingClient
	orchestrator *RetrievalOrchestrator

	// writes is held shared by ingest and remove, exclusively by a rebuild.
	writes sync.RWMutex
	// rebuilding admits one rebuild at a time.
	rebuilding sync.Mutex

	genOpts domain.GenerationOptions

	now func() time.Time
}

// NewRAGService creates the service.
func NewRAGService(
	docs driven.DocumentStore,
	index driven.VectorIndex,
	models driving.ModelService,
	embedder *EmbeddingClient,
	orchestrator *RetrievalOrchestrator,
) *RAGService {
	return &RAGService{
		docs:         docs,
		index:        index,
		models:       models,
		embedder:     embedder,
		orchestrator: orchestrator,
		now:          time.Now,
	}
}

// SetGenerationOptions sets the sampling options used by Query.
func (s *RAGService) SetGenerationOptions(opts domain.GenerationOptions) {
	s.genOpts = opts
}

// Ingest embeds doc with the active model and indexes it.
func (s *RAGService) Ingest(ctx context.Context, doc domain.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.SourceType == "" {
		doc.SourceType = domain.SourceTypeText
	}

	s.writes.RLock()
	defer s.writes.RUnlock()

	logger.Section("Ingest")
	logger.Debug("Document %s (%s, %d bytes)", doc.ID, doc.SourceType, len(doc.Content))

	vector, err := s.embedder.EmbedOne(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}

	now := s.now()
	doc.CreatedAt = now
	if existing, err := s.docs.GetDocument(ctx, doc.ID); err == nil {
		doc.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get document %s: %w", doc.ID, err)
	}
	doc.UpdatedAt = now

	if err := s.docs.SaveDocument(ctx, &doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	if err := s.index.Add(ctx, doc.ID, vector, recordMetadata(doc)); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	logger.Info("Ingested %s with %s", doc.ID, vector.ModelID)
	return nil
}

// Query answers question grounded on the topK most similar documents.
func (s *RAGService) Query(ctx context.Context, question string, topK int) (*domain.GeneratedAnswer, error) {
	return s.orchestrator.Answer(ctx, question, topK, s.genOpts)
}

// Search returns the topK most similar documents.
func (s *RAGService) Search(ctx context.Context, query string, topK int) (domain.RetrievalResult, error) {
	return s.orchestrator.Retrieve(ctx, query, topK)
}

// ReembedAll rebuilds the index from the stored documents, optionally
// switching the active model. Every document is embedded before the index is
// touched, and the active model only changes once the old vectors are gone, so
// a failed embedding pass leaves both the previous vectors and the previous
// model in place. Documents that fail to index after the switch are reported
// together; running ReembedAll again completes the rebuild.
func (s *RAGService) ReembedAll(ctx context.Context, modelID string) error {
	if !s.rebuilding.TryLock() {
		return domain.ErrReembedInProgress
	}
	defer s.rebuilding.Unlock()

	s.writes.Lock()
	defer s.writes.Unlock()

	logger.Section("Re-embed")
	target := s.models.Active()
	if modelID = strings.TrimSpace(modelID); modelID != "" {
		m, err := s.models.Get(modelID)
		if err != nil {
			return err
		}
		target = m
	}

	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	logger.Info("Re-embedding %d documents with %s", len(docs), target.ID)

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts, WithModel(target.ID))
	if err != nil {
		return fmt.Errorf("re-embed: %w", err)
	}

	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := s.models.SetActive(target.ID); err != nil {
		return err
	}

	var failed []error
	for i, d := range docs {
		if err := s.index.Add(ctx, d.ID, vectors[i], recordMetadata(d)); err != nil {
			failed = append(failed, fmt.Errorf("index document %s: %w", d.ID, err))
		}
	}
	if len(failed) > 0 {
		logger.Warn("Re-embed left %d of %d documents unindexed", len(failed), len(docs))
		return fmt.Errorf("index partially rebuilt: %w", errors.Join(failed...))
	}

	logger.Info("Re-embedded %d documents", len(docs))
	return nil
}

// RemoveDocument deletes a document and its vector.
func (s *RAGService) RemoveDocument(ctx context.Context, id string) (bool, error) {
	s.writes.RLock()
	defer s.writes.RUnlock()

	removed, err := s.index.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove vector %s: %w", id, err)
	}
	if err := s.docs.DeleteDocument(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return removed, fmt.Errorf("delete document %s: %w", id, err)
	}
	logger.Debug("Removed %s (indexed: %t)", id, removed)
	return removed, nil
}

// GetDocument returns a stored document.
func (s *RAGService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.GetDocument(ctx, id)
}

// ListDocuments returns every stored document.
func (s *RAGService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx)
}

// Stats summarises the index.
func (s *RAGService) Stats(ctx context.Context) (domain.IndexStats, error) {
	docs, err := s.docs.CountDocuments(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("count documents: %w", err)
	}
	vectors, err := s.index.Len(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("count vectors: %w", err)
	}
	return domain.IndexStats{
		Documents:   docs,
		Vectors:     vectors,
		ActiveModel: s.models.Active(),
	}, nil
}

func recordMetadata(doc domain.Document) map[string]any {
	return map[string]any{
		"title":       doc.Title,
		"source_type": string(doc.SourceType),
	}
}
