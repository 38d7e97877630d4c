// Package memory provides in-memory stores for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

type storedDocument struct {
	doc domain.Document
	seq uint64
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]storedDocument
	seq       uint64
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]storedDocument),
	}
}

// SaveDocument stores or replaces a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.seq
	if existing, ok := s.documents[doc.ID]; ok {
		seq = existing.seq
	} else {
		s.seq++
	}
	s.documents[doc.ID] = storedDocument{doc: copyDocument(*doc), seq: seq}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := copyDocument(stored.doc)
	return &doc, nil
}

// DeleteDocument removes a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// ListDocuments returns all documents ordered by creation time, then insertion.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	stored := make([]storedDocument, 0, len(s.documents))
	for _, d := range s.documents {
		stored = append(stored, d)
	}
	s.mu.RUnlock()

	sort.Slice(stored, func(i, j int) bool {
		if !stored[i].doc.CreatedAt.Equal(stored[j].doc.CreatedAt) {
			return stored[i].doc.CreatedAt.Before(stored[j].doc.CreatedAt)
		}
		return stored[i].seq < stored[j].seq
	})

	docs := make([]domain.Document, len(stored))
	for i, d := range stored {
		docs[i] = copyDocument(d.doc)
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (s *DocumentStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

func copyDocument(d domain.Document) domain.Document {
	if d.Metadata != nil {
		m := make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			m[k] = v
		}
		d.Metadata = m
	}
	return d
}
