// Package domain defines the core entities of the retrieval pipeline.
//
// This package is the innermost layer of the hexagon. It defines:
//
//   - Document: extracted text handed to the core for indexing
//   - EmbeddingVector and VectorRecord: what the vector index stores
//   - EmbeddingModel: a selectable embedding model and its dimensionality
//   - ScoredDocument and GeneratedAnswer: what a query returns
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
