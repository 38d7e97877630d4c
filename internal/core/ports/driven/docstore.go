package driven

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// DocumentStore persists ingested documents.
// Backed by SQLite, or memory for tests and ephemeral runs.
type DocumentStore interface {
	// SaveDocument stores or replaces a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID. Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document. Returns domain.ErrNotFound if absent.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents ordered by creation time.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// VectorRecordStore persists vector records so an in-process index can be
// rebuilt across runs.
type VectorRecordStore interface {
	// SaveVectorRecord stores or replaces the record for its document.
	SaveVectorRecord(ctx context.Context, rec domain.VectorRecord) error

	// DeleteVectorRecord removes the record for documentID.
	DeleteVectorRecord(ctx context.Context, documentID string) error

	// ListVectorRecords returns all records in insertion order.
	ListVectorRecords(ctx context.Context) ([]domain.VectorRecord, error)

	// ClearVectorRecords removes every record.
	ClearVectorRecords(ctx context.Context) error
}
