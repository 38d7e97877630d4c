// Package durable provides an in-process vector index whose records are
// written through to a VectorRecordStore and reloaded on open.
package durable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/vectorindex/memory"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index searches in memory and persists every change before applying it.
type Index struct {
	mem   *memory.Index
	store driven.VectorRecordStore

	// mu serialises writes so the store and memory apply them in the same order.
	mu  sync.Mutex
	now func() time.Time
}

// Open loads every stored record into a fresh in-memory index.
// Records are replayed in insertion order, which preserves tie-breaking.
func Open(ctx context.Context, store driven.VectorRecordStore) (*Index, error) {
	records, err := store.ListVectorRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vector records: %w", err)
	}

	mem := memory.New()
	skipped := 0
	for _, rec := range records {
		if err := mem.Add(ctx, rec.DocumentID, rec.Embedding, rec.Metadata); err != nil {
			logger.Warn("Skipping stored vector for %s: %v", rec.DocumentID, err)
			skipped++
		}
	}
	logger.Debug("Loaded %d vectors (%d skipped)", len(records)-skipped, skipped)

	return &Index{mem: mem, store: store, now: time.Now}, nil
}

// Add persists then indexes the vector.
func (ix *Index) Add(ctx context.Context, documentID string, embedding domain.EmbeddingVector, metadata map[string]any) error {
	if err := embedding.Validate(); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	rec := domain.VectorRecord{
		DocumentID: documentID,
		Embedding:  embedding,
		Metadata:   metadata,
		IndexedAt:  ix.now(),
	}
	if err := ix.store.SaveVectorRecord(ctx, rec); err != nil {
		return fmt.Errorf("persist vector %s: %w", documentID, err)
	}
	return ix.mem.Add(ctx, documentID, embedding, metadata)
}

// Search runs an exact search over the in-memory records.
func (ix *Index) Search(ctx context.Context, query domain.EmbeddingVector, topK int) ([]driven.VectorHit, error) {
	return ix.mem.Search(ctx, query, topK)
}

// Remove deletes the stored and in-memory record.
func (ix *Index) Remove(ctx context.Context, documentID string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.store.DeleteVectorRecord(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("delete vector %s: %w", documentID, err)
	}
	return ix.mem.Remove(ctx, documentID)
}

// Clear removes every record.
func (ix *Index) Clear(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.store.ClearVectorRecords(ctx); err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}
	return ix.mem.Clear(ctx)
}

// Len returns the number of indexed records.
func (ix *Index) Len(ctx context.Context) (int, error) {
	return ix.mem.Len(ctx)
}

// Close releases the in-memory index. The store is owned by the caller.
func (ix *Index) Close() error {
	return ix.mem.Close()
}
