package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

func TestRecordStore_VectorRecords(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	vec := domain.NewEmbeddingVector([]float32{1, 0}, "m")
	require.NoError(t, store.SaveVectorRecord(ctx, domain.VectorRecord{DocumentID: "a", Embedding: vec}))
	require.NoError(t, store.SaveVectorRecord(ctx, domain.VectorRecord{DocumentID: "b", Embedding: vec}))
	// Replacing keeps the original position.
	require.NoError(t, store.SaveVectorRecord(ctx, domain.VectorRecord{
		DocumentID: "a",
		Embedding:  domain.NewEmbeddingVector([]float32{0, 1}, "m"),
	}))

	vec.Values[0] = 42

	recs, err := store.ListVectorRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].DocumentID)
	assert.Equal(t, []float32{0, 1}, recs[0].Embedding.Values)
	assert.Equal(t, []float32{1, 0}, recs[1].Embedding.Values)

	require.NoError(t, store.DeleteVectorRecord(ctx, "a"))
	recs, err = store.ListVectorRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	require.NoError(t, store.ClearVectorRecords(ctx))
	recs, err = store.ListVectorRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordStore_ErrorLog(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendError(ctx, domain.ErrorRecord{Op: fmt.Sprintf("op%d", i)}, 3))
	}

	recs, err := store.RecentErrors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "op2", recs[0].Op)
	assert.Equal(t, "op4", recs[2].Op)

	recs, err = store.RecentErrors(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "op4", recs[0].Op)
}
