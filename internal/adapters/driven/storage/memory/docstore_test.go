package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	now := time.Now()
	doc := &domain.Document{
		ID:         "doc-1",
		Title:      "Test Document",
		Content:    "body",
		SourceType: domain.SourceTypeMarkdown,
		URI:        "/path/to/document.md",
		Metadata:   map[string]any{"author": "Jane"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Document", saved.Title)
	assert.Equal(t, domain.SourceTypeMarkdown, saved.SourceType)
	assert.Equal(t, "Jane", saved.Metadata["author"])

	// Stored copies are isolated from the caller.
	doc.Metadata["author"] = "changed"
	saved.Metadata["author"] = "changed too"
	again, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", again.Metadata["author"])
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Replace(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d", Title: "v1"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d", Title: "v2"}))

	got, err := store.GetDocument(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)

	count, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentStore_Delete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d"}))

	require.NoError(t, store.DeleteDocument(ctx, "d"))
	assert.ErrorIs(t, store.DeleteDocument(ctx, "d"), domain.ErrNotFound)

	_, err := store.GetDocument(ctx, "d")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListOrder(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "late", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "b", CreatedAt: base}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "a", CreatedAt: base}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
	assert.Equal(t, "late", docs[2].ID)
}

func TestDocumentStore_Concurrent(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := &domain.Document{ID: "doc", Title: "t"}
			_ = store.SaveDocument(ctx, doc)
			_, _ = store.GetDocument(ctx, "doc")
			_, _ = store.ListDocuments(ctx)
		}()
	}
	wg.Wait()

	count, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
