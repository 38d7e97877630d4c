package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
)

// Ensure RecordStore implements the interfaces.
var (
	_ driven.VectorRecordStore = (*RecordStore)(nil)
	_ driven.ErrorLogStore     = (*RecordStore)(nil)
)

type storedRecord struct {
	rec domain.VectorRecord
	seq uint64
}

// RecordStore is an in-memory vector record and error log store.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	seq     uint64
	errors  []domain.ErrorRecord
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]storedRecord)}
}

// SaveVectorRecord stores or replaces the record for its document.
// A replaced record keeps its original insertion position.
func (s *RecordStore) SaveVectorRecord(_ context.Context, rec domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.seq
	if existing, ok := s.records[rec.DocumentID]; ok {
		seq = existing.seq
	} else {
		s.seq++
	}
	rec.Embedding = rec.Embedding.Clone()
	s.records[rec.DocumentID] = storedRecord{rec: rec, seq: seq}
	return nil
}

// DeleteVectorRecord removes the record for documentID.
func (s *RecordStore) DeleteVectorRecord(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, documentID)
	return nil
}

// ListVectorRecords returns all records in insertion order.
func (s *RecordStore) ListVectorRecords(_ context.Context) ([]domain.VectorRecord, error) {
	s.mu.RLock()
	stored := make([]storedRecord, 0, len(s.records))
	for _, r := range s.records {
		stored = append(stored, r)
	}
	s.mu.RUnlock()

	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	out := make([]domain.VectorRecord, len(stored))
	for i, r := range stored {
		out[i] = r.rec
		out[i].Embedding = r.rec.Embedding.Clone()
	}
	return out, nil
}

// ClearVectorRecords removes every record.
func (s *RecordStore) ClearVectorRecords(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]storedRecord)
	return nil
}

// AppendError stores rec, keeping at most limit records.
func (s *RecordStore) AppendError(_ context.Context, rec domain.ErrorRecord, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, rec)
	if limit > 0 && len(s.errors) > limit {
		s.errors = append([]domain.ErrorRecord(nil), s.errors[len(s.errors)-limit:]...)
	}
	return nil
}

// RecentErrors returns up to limit records, oldest first.
func (s *RecordStore) RecentErrors(_ context.Context, limit int) ([]domain.ErrorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	errs := s.errors
	if limit > 0 && len(errs) > limit {
		errs = errs[len(errs)-limit:]
	}
	return append([]domain.ErrorRecord(nil), errs...), nil
}
