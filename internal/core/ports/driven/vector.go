package driven

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// VectorIndex stores one embedding per document and answers exact top-K
// cosine similarity queries.
//
// Implementations must:
//   - replace any existing record on Add for the same document id
//   - skip records whose dimensionality differs from the query
//   - order hits by descending score, ties by original insertion order
//   - be safe for concurrent use, with searches seeing a consistent snapshot
type VectorIndex interface {
	// Add inserts or replaces the vector for documentID.
	Add(ctx context.Context, documentID string, embedding domain.EmbeddingVector, metadata map[string]any) error

	// Search returns at most topK hits. topK <= 0 yields no hits.
	Search(ctx context.Context, query domain.EmbeddingVector, topK int) ([]VectorHit, error)

	// Remove deletes the record for documentID and reports whether it existed.
	Remove(ctx context.Context, documentID string) (bool, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Len returns the number of records.
	Len(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// DocumentID is the matched document.
	DocumentID string

	// Score is the cosine similarity in [-1, 1].
	Score float64

	// Metadata is the metadata stored with the record.
	Metadata map[string]any
}
