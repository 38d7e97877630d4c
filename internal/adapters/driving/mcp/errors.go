// Package mcp provides an MCP (Model Context Protocol) server adapter for ragctl.
// It lets AI assistants ask grounded questions about, search and manage the
// local document index.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
