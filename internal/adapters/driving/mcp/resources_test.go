package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid document URI", uri: "ragctl://documents/doc-456", expected: "doc-456"},
		{name: "invalid prefix", uri: "file://documents/doc-456", expected: ""},
		{name: "document list URI", uri: "ragctl://documents", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	rag := &mockRAGService{documents: []domain.Document{
		{ID: "doc-1", Title: "Guide", SourceType: domain.SourceTypeMarkdown, URI: "/docs/guide.md"},
		{ID: "doc-2", SourceType: domain.SourceTypeText},
	}}
	server := newTestServer(t, rag)

	result, err := server.handleDocumentsResource(context.Background(), makeReadResourceRequest("ragctl://documents"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var docs []map[string]string
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "Guide", docs[0]["title"])
	assert.Equal(t, "markdown", docs[0]["source_type"])
	assert.Equal(t, "doc-2", docs[1]["title"])
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns content", func(t *testing.T) {
		rag := &mockRAGService{document: &domain.Document{ID: "doc-1", Content: "the body"}}
		result, err := newTestServer(t, rag).handleDocumentContentResource(ctx, makeReadResourceRequest("ragctl://documents/doc-1"))
		require.NoError(t, err)
		assert.Equal(t, "the body", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		rag := &mockRAGService{err: domain.ErrNotFound}
		_, err := newTestServer(t, rag).handleDocumentContentResource(ctx, makeReadResourceRequest("ragctl://documents/nope"))
		assert.Error(t, err)
	})

	t.Run("malformed uri is not found", func(t *testing.T) {
		_, err := newTestServer(t, &mockRAGService{}).handleDocumentContentResource(ctx, makeReadResourceRequest("other://x"))
		assert.Error(t, err)
	})
}

func TestServer_handleErrorsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no diagnostics returns empty list", func(t *testing.T) {
		result, err := newTestServer(t, &mockRAGService{}).handleErrorsResource(ctx, makeReadResourceRequest("ragctl://errors"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns records", func(t *testing.T) {
		diag := &mockDiagnosticsService{records: []domain.ErrorRecord{{
			Time: time.Unix(100, 0).UTC(), Op: "embed", Kind: "transient", StatusCode: 503, Attempts: 4, Message: "unavailable",
		}}}
		server, err := NewServer(&Ports{RAG: &mockRAGService{}, Diagnostics: diag})
		require.NoError(t, err)

		result, err := server.handleErrorsResource(ctx, makeReadResourceRequest("ragctl://errors"))
		require.NoError(t, err)

		var records []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &records))
		require.Len(t, records, 1)
		assert.Equal(t, "embed", records[0]["op"])
		assert.Equal(t, "transient", records[0]["kind"])
		assert.EqualValues(t, 503, records[0]["status_code"])
		assert.EqualValues(t, 4, records[0]["attempts"])
	})
}
