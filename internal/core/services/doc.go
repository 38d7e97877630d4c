// Package services implements the retrieval core.
//
// # Services
//
//   - ModelRegistry: embedding model catalogue and active model
//   - EmbeddingClient: batched, retried embedding with shape checks
//   - GenerationClient: retried chat completion
//   - RetrievalOrchestrator: query embedding, top-K search, prompt assembly
//   - RAGService: the collaborator interface (ingest, query, re-embed, remove)
//   - DiagnosticsService: error log of remote calls
//
// Services depend only on domain, the port interfaces and the resilience
// package. Adapters are injected by the composition root in cmd/ragctl.
package services
