package mcp

import (
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// RAG answers, searches and manages documents.
	RAG driving.RAGService

	// Diagnostics exposes the error log. Optional.
	Diagnostics driving.DiagnosticsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
