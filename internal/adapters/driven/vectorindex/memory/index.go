// Package memory provides an exact, in-process vector index.
//
// Search compares the query against every stored vector, O(n*d) per query.
// This suits personal corpora of up to tens of thousands of documents; larger
// collections should use an external index such as the qdrant adapter.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	embedding domain.EmbeddingVector
	metadata  map[string]any
	seq       uint64
}

// Option configures an Index.
type Option func(*Index)

// WithCapacity bounds the index to n records. Adding a new document to a
// full index evicts the oldest-inserted record. n <= 0 means unbounded.
func WithCapacity(n int) Option {
	return func(ix *Index) {
		ix.capacity = n
	}
}

// Index is an exact cosine similarity index guarded by a single RWMutex.
// Writers are exclusive; every search sees a consistent snapshot.
type Index struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	nextSeq  uint64
	capacity int
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add inserts or replaces the vector for documentID. A replaced record keeps
// its original insertion position for tie-breaking.
func (ix *Index) Add(_ context.Context, documentID string, embedding domain.EmbeddingVector, metadata map[string]any) error {
	if err := embedding.Validate(); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, ok := ix.entries[documentID]; ok {
		existing.embedding = embedding.Clone()
		existing.metadata = copyMetadata(metadata)
		return nil
	}

	if ix.capacity > 0 && len(ix.entries) >= ix.capacity {
		ix.evictOldest()
	}
	ix.entries[documentID] = &entry{
		embedding: embedding.Clone(),
		metadata:  copyMetadata(metadata),
		seq:       ix.nextSeq,
	}
	ix.nextSeq++
	return nil
}

// evictOldest removes the record with the lowest insertion sequence.
// Callers must hold the write lock.
func (ix *Index) evictOldest() {
	var oldestID string
	var oldest uint64
	first := true
	for id, e := range ix.entries {
		if first || e.seq < oldest {
			oldestID, oldest, first = id, e.seq, false
		}
	}
	if !first {
		delete(ix.entries, oldestID)
		logger.Debug("Vector index full, evicted %s", oldestID)
	}
}

type scored struct {
	id    string
	score float64
	seq   uint64
	meta  map[string]any
}

// Search returns up to topK records ordered by descending cosine similarity,
// ties broken by insertion order. Records with a different dimensionality
// than the query are skipped.
func (ix *Index) Search(_ context.Context, query domain.EmbeddingVector, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return []driven.VectorHit{}, nil
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	candidates := make([]scored, 0, len(ix.entries))
	skipped := 0
	for id, e := range ix.entries {
		if e.embedding.Dimensions != query.Dimensions {
			skipped++
			continue
		}
		candidates = append(candidates, scored{
			id:    id,
			score: domain.CosineSimilarity(query.Values, e.embedding.Values),
			seq:   e.seq,
			meta:  e.metadata,
		})
	}
	ix.mu.RUnlock()

	if skipped > 0 {
		logger.Debug("Vector search skipped %d records with mismatched dimensions", skipped)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	hits := make([]driven.VectorHit, len(candidates))
	for i, c := range candidates {
		hits[i] = driven.VectorHit{DocumentID: c.id, Score: c.score, Metadata: copyMetadata(c.meta)}
	}
	return hits, nil
}

// Remove deletes the record for documentID.
func (ix *Index) Remove(_ context.Context, documentID string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.entries[documentID]; !ok {
		return false, nil
	}
	delete(ix.entries, documentID)
	return true, nil
}

// Clear removes every record.
func (ix *Index) Clear(_ context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = make(map[string]*entry)
	return nil
}

// Len returns the number of records.
func (ix *Index) Len(_ context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries), nil
}

// Close releases resources.
func (ix *Index) Close() error {
	return nil
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
