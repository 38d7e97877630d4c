// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingProvider: Turns batches of text into vectors
//   - ChatProvider: Produces chat completions
//   - VectorIndex: Stores vectors and answers exact top-K cosine queries
//   - DocumentStore: Document persistence, used to hydrate search hits
//
// # Optional Interfaces
//
//   - VectorRecordStore: Durable copy of the index, restored at start-up
//   - ErrorLogStore: Durable copy of the resilience error log
//   - PromptStore: User-editable system prompts
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
