package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

type mockRAGService struct {
	docs     map[string]domain.Document
	order    []string
	answer   *domain.GeneratedAnswer
	result   domain.RetrievalResult
	err      error
	reembeds []string
	lastTopK int
}

func newMockRAG() *mockRAGService {
	return &mockRAGService{docs: make(map[string]domain.Document)}
}

func (m *mockRAGService) Ingest(_ context.Context, doc domain.Document) error {
	if m.err != nil {
		return m.err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if _, ok := m.docs[doc.ID]; !ok {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockRAGService) Query(_ context.Context, _ string, topK int) (*domain.GeneratedAnswer, error) {
	m.lastTopK = topK
	return m.answer, m.err
}

func (m *mockRAGService) Search(_ context.Context, _ string, topK int) (domain.RetrievalResult, error) {
	m.lastTopK = topK
	return m.result, m.err
}

func (m *mockRAGService) ReembedAll(_ context.Context, modelID string) error {
	m.reembeds = append(m.reembeds, modelID)
	return m.err
}

func (m *mockRAGService) RemoveDocument(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.docs[id]
	delete(m.docs, id)
	return ok, nil
}

func (m *mockRAGService) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockRAGService) ListDocuments(_ context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(m.docs))
	for _, id := range m.order {
		if d, ok := m.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, m.err
}

func (m *mockRAGService) Stats(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{
		Documents:   len(m.docs),
		Vectors:     len(m.docs),
		ActiveModel: domain.EmbeddingModel{ID: "test-model", Dimensions: 3},
	}, m.err
}

type mockModelService struct {
	models []domain.EmbeddingModel
	active string
}

func (m *mockModelService) List() []domain.EmbeddingModel { return m.models }

func (m *mockModelService) Get(id string) (domain.EmbeddingModel, error) {
	for _, model := range m.models {
		if model.ID == id {
			return model, nil
		}
	}
	return domain.EmbeddingModel{}, domain.ErrModelNotFound
}

func (m *mockModelService) Active() domain.EmbeddingModel {
	model, _ := m.Get(m.active)
	return model
}

func (m *mockModelService) SetActive(id string) error {
	if _, err := m.Get(id); err != nil {
		return err
	}
	m.active = id
	return nil
}

type mockDiagnosticsService struct {
	records []domain.ErrorRecord
}

func (m *mockDiagnosticsService) RecentErrors(_ context.Context, _ int) ([]domain.ErrorRecord, error) {
	return m.records, nil
}

// testServices is the mock set installed by setupTestServices.
type testServices struct {
	rag    *mockRAGService
	models *mockModelService
	diag   *mockDiagnosticsService
	saved  []string
}

// setupTestServices installs mock services and returns a cleanup function
// that removes them and resets command flags.
func setupTestServices() func() {
	_, cleanup := setupTestServicesWithMocks()
	return cleanup
}

func setupTestServicesWithMocks() (*testServices, func()) {
	ts := &testServices{
		rag: newMockRAG(),
		models: &mockModelService{
			models: []domain.EmbeddingModel{
				{ID: "test-model", Dimensions: 3, Description: "test"},
				{ID: "other-model", Dimensions: 5, Description: "other"},
			},
			active: "test-model",
		},
		diag: &mockDiagnosticsService{},
	}
	SetServices(&Services{
		RAG:         ts.rag,
		Models:      ts.models,
		Diagnostics: ts.diag,
		TopK:        4,
		SaveActiveModel: func(id string) error {
			ts.saved = append(ts.saved, id)
			return nil
		},
	})
	return ts, func() {
		SetServices(nil)
		resetFlags()
	}
}

func resetFlags() {
	ingestRecursive, ingestText, ingestTitle, ingestID = false, "", "", ""
	askTopK, askSources = 0, false
	searchTopK, searchJSON = 0, false
	reembedModel = ""
	errorsLimit = 20
	versionShort = false
	watchNoSync = false
	cfgPath, verbose = "", false
	_ = mcpCmd.Flags().Set("http", "")
}

// run executes the root command with args and returns its output.
func run(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
