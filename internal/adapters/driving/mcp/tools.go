package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/extract"
)

// defaultTopK is used when a tool call gives no limit.
const defaultTopK = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of documents to ground the answer on (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string         `json:"answer"`
	GroundedOn []string       `json:"grounded_on"`
	NoContext  bool           `json:"no_context"`
	Capability string         `json:"capability"`
	Sources    []SearchResult `json:"sources,omitempty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find documents"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// SearchResult represents a single ranked document.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	URI        string  `json:"uri,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content,omitempty"`
}

// IngestInput is the input schema for the ingest tool. Either Path or
// Content must be given.
type IngestInput struct {
	Path       string `json:"path,omitempty" jsonschema:"a local file to extract and ingest"`
	ID         string `json:"id,omitempty" jsonschema:"document id; generated when empty"`
	Title      string `json:"title,omitempty" jsonschema:"document title"`
	Content    string `json:"content,omitempty" jsonschema:"document text"`
	SourceType string `json:"source_type,omitempty" jsonschema:"text, markdown, code, csv, html or json"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
}

// RemoveInput is the input schema for the remove tool.
type RemoveInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document to remove"`
}

// RemoveOutput is the output schema for the remove tool.
type RemoveOutput struct {
	Removed bool `json:"removed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question grounded on the most relevant indexed documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the indexed documents most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Add or replace a document in the index",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove",
		Description: "Remove a document from the index",
	}, s.handleRemove)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	answer, err := s.ports.RAG.Query(ctx, input.Question, topK)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:     answer.Text,
		GroundedOn: answer.GroundedOn,
		NoContext:  answer.NoContext,
		Capability: string(answer.Capability),
		Sources:    toSearchResults(answer.Sources, false),
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTopK
	}

	result, err := s.ports.RAG.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toSearchResults(result, true),
		Count:   len(result),
	}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	var doc domain.Document
	switch {
	case input.Path != "":
		var err error
		if doc, err = extract.File(input.Path); err != nil {
			return nil, IngestOutput{}, fmt.Errorf("extract %s: %w", input.Path, err)
		}
	case strings.TrimSpace(input.Content) != "":
		doc = domain.Document{
			ID:         input.ID,
			Title:      input.Title,
			Content:    input.Content,
			SourceType: domain.SourceType(input.SourceType),
		}
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
	default:
		return nil, IngestOutput{}, errors.New("either path or content is required")
	}

	if err := s.ports.RAG.Ingest(ctx, doc); err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{DocumentID: doc.ID}, nil
}

func (s *Server) handleRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, RemoveOutput, error) {
	if input.DocumentID == "" {
		return nil, RemoveOutput{}, errors.New("document_id is required")
	}
	removed, err := s.ports.RAG.RemoveDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, RemoveOutput{}, err
	}
	return nil, RemoveOutput{Removed: removed}, nil
}

func toSearchResults(result domain.RetrievalResult, withContent bool) []SearchResult {
	out := make([]SearchResult, len(result))
	for i, sd := range result {
		out[i] = SearchResult{
			DocumentID: sd.Document.ID,
			Title:      sd.Document.DisplayTitle(),
			URI:        sd.Document.URI,
			Score:      sd.Score,
		}
		if withContent {
			out[i].Content = sd.Document.Content
		}
	}
	return out
}
