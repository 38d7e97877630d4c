package domain

import (
	"fmt"
	"math"
	"time"
)

// Pooling selects how token-level vectors are reduced to one vector per input.
type Pooling string

// Pooling strategies.
const (
	PoolingMean Pooling = "mean"
	PoolingCLS  Pooling = "cls"
	PoolingMax  Pooling = "max"
)

// IsValid returns true if the pooling strategy is recognised.
func (p Pooling) IsValid() bool {
	switch p {
	case PoolingMean, PoolingCLS, PoolingMax:
		return true
	default:
		return false
	}
}

// EmbeddingVector is a dense vector produced by a specific model.
// len(Values) must equal Dimensions.
type EmbeddingVector struct {
	Values     []float32
	Dimensions int
	ModelID    string
}

// NewEmbeddingVector builds a vector whose Dimensions matches its values.
func NewEmbeddingVector(values []float32, modelID string) EmbeddingVector {
	return EmbeddingVector{Values: values, Dimensions: len(values), ModelID: modelID}
}

// Validate checks len(Values) == Dimensions.
func (v EmbeddingVector) Validate() error {
	if len(v.Values) != v.Dimensions {
		return &DimensionMismatchError{Expected: v.Dimensions, Actual: len(v.Values)}
	}
	if v.Dimensions == 0 {
		return fmt.Errorf("%w: empty embedding", ErrInvalidInput)
	}
	return nil
}

// Clone returns a deep copy.
func (v EmbeddingVector) Clone() EmbeddingVector {
	values := make([]float32, len(v.Values))
	copy(values, v.Values)
	v.Values = values
	return v
}

// VectorRecord is the indexed embedding of one document.
type VectorRecord struct {
	DocumentID string
	Embedding  EmbeddingVector
	Metadata   map[string]any
	IndexedAt  time.Time
}

// EmbeddingModel describes a selectable embedding model.
type EmbeddingModel struct {
	ID          string
	Name        string
	Dimensions  int
	Description string
}

// CosineSimilarity returns dot(a,b)/(|a||b|), accumulated in float64.
// It returns 0 when either vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp rounding drift so results stay in [-1, 1].
	return math.Max(-1, math.Min(1, sim))
}

// Normalize scales v to unit L2 length in place. Zero vectors are unchanged.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
}
