package mcp

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer    *domain.GeneratedAnswer
	result    domain.RetrievalResult
	documents []domain.Document
	document  *domain.Document
	removed   bool
	err       error

	ingested  []domain.Document
	lastTopK  int
	lastQuery string
}

func (m *mockRAGService) Ingest(_ context.Context, doc domain.Document) error {
	if m.err != nil {
		return m.err
	}
	m.ingested = append(m.ingested, doc)
	return nil
}

func (m *mockRAGService) Query(_ context.Context, question string, topK int) (*domain.GeneratedAnswer, error) {
	m.lastQuery, m.lastTopK = question, topK
	return m.answer, m.err
}

func (m *mockRAGService) Search(_ context.Context, query string, topK int) (domain.RetrievalResult, error) {
	m.lastQuery, m.lastTopK = query, topK
	return m.result, m.err
}

func (m *mockRAGService) ReembedAll(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRAGService) RemoveDocument(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockRAGService) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockRAGService) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockRAGService) Stats(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{Documents: len(m.documents)}, m.err
}

// mockDiagnosticsService is a mock implementation of driving.DiagnosticsService.
type mockDiagnosticsService struct {
	records []domain.ErrorRecord
	err     error
}

func (m *mockDiagnosticsService) RecentErrors(_ context.Context, _ int) ([]domain.ErrorRecord, error) {
	return m.records, m.err
}
