package driving

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// RAGService is the collaborator interface of the retrieval core.
type RAGService interface {
	// Ingest embeds doc with the active model and indexes it, replacing any
	// previous version with the same id.
	Ingest(ctx context.Context, doc domain.Document) error

	// Query answers question grounded on the topK most similar documents.
	Query(ctx context.Context, question string, topK int) (*domain.GeneratedAnswer, error)

	// Search returns the topK most similar documents without generating an answer.
	Search(ctx context.Context, query string, topK int) (domain.RetrievalResult, error)

	// ReembedAll switches to modelID (empty keeps the active model) and rebuilds
	// the index from the stored documents. Only one rebuild runs at a time;
	// a concurrent call fails with domain.ErrReembedInProgress.
	ReembedAll(ctx context.Context, modelID string) error

	// RemoveDocument deletes a document and its vector. It reports whether
	// the document was indexed.
	RemoveDocument(ctx context.Context, id string) (bool, error)

	// GetDocument returns a stored document.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns every stored document.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Stats summarises the index.
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// ModelService manages the embedding model catalogue.
type ModelService interface {
	// List returns the registered models.
	List() []domain.EmbeddingModel

	// Get returns a model by id, or domain.ErrModelNotFound.
	Get(id string) (domain.EmbeddingModel, error)

	// Active returns the model new embeddings are produced with.
	Active() domain.EmbeddingModel

	// SetActive switches the active model. Existing vectors are not re-embedded.
	SetActive(id string) error
}

// DiagnosticsService exposes the error log of remote calls.
type DiagnosticsService interface {
	// RecentErrors returns up to limit terminal failures, oldest first.
	RecentErrors(ctx context.Context, limit int) ([]domain.ErrorRecord, error)
}
