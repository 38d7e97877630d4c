package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
)

func vec(values ...float32) domain.EmbeddingVector {
	return domain.NewEmbeddingVector(values, "test-model")
}

func seeded(t *testing.T, opts ...Option) *Index {
	t.Helper()
	ix := New(opts...)
	ctx := context.Background()
	require.NoError(t, ix.Add(ctx, "x", vec(1, 0, 0), map[string]any{"title": "X"}))
	require.NoError(t, ix.Add(ctx, "y", vec(0, 1, 0), nil))
	require.NoError(t, ix.Add(ctx, "xy", vec(1, 1, 0), nil))
	require.NoError(t, ix.Add(ctx, "neg", vec(-1, 0, 0), nil))
	return ix
}

func TestIndex_SearchOrdering(t *testing.T) {
	ix := seeded(t)

	hits, err := ix.Search(context.Background(), vec(1, 0.1, 0), 10)
	require.NoError(t, err)
	require.Len(t, hits, 4)

	assert.Equal(t, "x", hits[0].DocumentID)
	assert.Equal(t, "xy", hits[1].DocumentID)
	assert.Equal(t, "y", hits[2].DocumentID)
	assert.Equal(t, "neg", hits[3].DocumentID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
	assert.Equal(t, "X", hits[0].Metadata["title"])
}

func TestIndex_SearchLength(t *testing.T) {
	ix := seeded(t)
	ctx := context.Background()

	tests := []struct {
		topK int
		want int
	}{
		{0, 0},
		{-3, 0},
		{1, 1},
		{3, 3},
		{4, 4},
		{100, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("topK=%d", tt.topK), func(t *testing.T) {
			hits, err := ix.Search(ctx, vec(1, 0, 0), tt.topK)
			require.NoError(t, err)
			assert.Len(t, hits, tt.want)
		})
	}
}

func TestIndex_SelfRetrieval(t *testing.T) {
	ix := New()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	vectors := make(map[string]domain.EmbeddingVector)
	for i := 0; i < 50; i++ {
		values := make([]float32, 16)
		for j := range values {
			values[j] = rng.Float32()*2 - 1
		}
		id := fmt.Sprintf("doc-%d", i)
		vectors[id] = vec(values...)
		require.NoError(t, ix.Add(ctx, id, vectors[id], nil))
	}

	for id, v := range vectors {
		hits, err := ix.Search(ctx, v, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, id, hits[0].DocumentID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	}
}

func TestIndex_TiesKeepInsertionOrder(t *testing.T) {
	ix := New()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, ix.Add(ctx, id, vec(1, 1), nil))
	}

	hits, err := ix.Search(ctx, vec(1, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(hits))

	// Replacing keeps the original position.
	require.NoError(t, ix.Add(ctx, "c", vec(2, 2), nil))
	hits, err = ix.Search(ctx, vec(1, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(hits))
}

func TestIndex_AddIsIdempotent(t *testing.T) {
	ix := New()
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, "d", vec(1, 0), nil))
	require.NoError(t, ix.Add(ctx, "d", vec(0, 1), nil))

	n, err := ix.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := ix.Search(ctx, vec(0, 1), 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestIndex_Remove(t *testing.T) {
	ix := seeded(t)
	ctx := context.Background()

	removed, err := ix.Remove(ctx, "x")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = ix.Remove(ctx, "x")
	require.NoError(t, err)
	assert.False(t, removed)

	hits, err := ix.Search(ctx, vec(1, 0, 0), 10)
	require.NoError(t, err)
	assert.NotContains(t, ids(hits), "x")
}

func TestIndex_Clear(t *testing.T) {
	ix := seeded(t)
	ctx := context.Background()

	require.NoError(t, ix.Clear(ctx))

	n, err := ix.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	hits, err := ix.Search(ctx, vec(1, 0, 0), 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_MixedDimensionsFiltered(t *testing.T) {
	ix := seeded(t)
	ctx := context.Background()
	require.NoError(t, ix.Add(ctx, "wide", vec(1, 0, 0, 0, 0), nil))

	hits, err := ix.Search(ctx, vec(1, 0, 0), 10)
	require.NoError(t, err)
	assert.Len(t, hits, 4)
	assert.NotContains(t, ids(hits), "wide")

	hits, err = ix.Search(ctx, vec(1, 0, 0, 0, 0), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"wide"}, ids(hits))
}

func TestIndex_RejectsInconsistentVector(t *testing.T) {
	ix := New()
	bad := domain.EmbeddingVector{Values: []float32{1, 2}, Dimensions: 3}

	err := ix.Add(context.Background(), "bad", bad, nil)
	require.Error(t, err)
	assert.True(t, domain.IsDimensionMismatch(err))

	_, err = ix.Search(context.Background(), bad, 1)
	assert.True(t, domain.IsDimensionMismatch(err))
}

func TestIndex_StoresCopies(t *testing.T) {
	ix := New()
	ctx := context.Background()
	v := vec(1, 0)
	meta := map[string]any{"k": "v"}
	require.NoError(t, ix.Add(ctx, "d", v, meta))

	v.Values[0] = -1
	meta["k"] = "changed"

	hits, err := ix.Search(ctx, vec(1, 0), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "v", hits[0].Metadata["k"])
}

func TestIndex_CapacityEvictsOldest(t *testing.T) {
	ix := New(WithCapacity(2))
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, "first", vec(1, 0), nil))
	require.NoError(t, ix.Add(ctx, "second", vec(0, 1), nil))
	// Replacing an existing id never evicts.
	require.NoError(t, ix.Add(ctx, "first", vec(1, 1), nil))
	n, _ := ix.Len(ctx)
	assert.Equal(t, 2, n)

	require.NoError(t, ix.Add(ctx, "third", vec(1, 0), nil))

	hits, err := ix.Search(ctx, vec(1, 0), 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"second", "third"}, ids(hits))
}

func TestIndex_ConcurrentReadersAndWriters(t *testing.T) {
	ix := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				_ = ix.Add(ctx, id, vec(float32(i), 1, float32(w)), nil)
				if i%3 == 0 {
					_, _ = ix.Remove(ctx, id)
				}
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				hits, err := ix.Search(ctx, vec(1, 1, 1), 5)
				assert.NoError(t, err)
				assert.LessOrEqual(t, len(hits), 5)
			}
		}()
	}
	wg.Wait()

	n, err := ix.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4*66, n)
}

func ids(hits []driven.VectorHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.DocumentID
	}
	return out
}
