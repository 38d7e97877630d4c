package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/extract"
)

func TestIngestCmd_Files(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# Alpha\nfirst"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("%PDF"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("third"), 0600))

	out, err := run("ingest", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 1, skipped 1, failed 0")
	assert.Contains(t, ts.rag.docs, extract.DocumentID(filepath.Join(dir, "a.md")))

	out, err = run("ingest", "-r", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2, skipped 1, failed 0")
	assert.Contains(t, ts.rag.docs, extract.DocumentID(filepath.Join(dir, "sub", "c.txt")))
}

func TestIngestCmd_FailureIsReported(t *testing.T) {
	_, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   "), 0600))

	out, err := run("ingest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 file(s) failed")
	assert.Contains(t, out, "fail")
}

func TestIngestCmd_Text(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	out, err := run("ingest", "--text", "The sky is blue.", "--id", "sky", "--title", "Sky")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested sky")
	assert.Equal(t, "Sky", ts.rag.docs["sky"].Title)
}

func TestIngestCmd_NoInput(t *testing.T) {
	_, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	_, err := run("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files given")
}

func TestAskCmd(t *testing.T) {
	t.Run("grounded answer", func(t *testing.T) {
		ts, cleanup := setupTestServicesWithMocks()
		defer cleanup()
		ts.rag.answer = &domain.GeneratedAnswer{
			Text:       "It is blue.",
			GroundedOn: []string{"sky"},
			Sources:    domain.RetrievalResult{{Document: domain.Document{ID: "sky", Title: "Sky"}, Score: 0.91}},
		}

		out, err := run("ask", "what", "colour", "is", "the", "sky?", "-s")
		require.NoError(t, err)
		assert.Contains(t, out, "It is blue.")
		assert.Contains(t, out, "Grounded on: sky")
		assert.Contains(t, out, "0.9100 Sky (sky)")
		assert.Equal(t, 4, ts.rag.lastTopK)
	})

	t.Run("no context", func(t *testing.T) {
		ts, cleanup := setupTestServicesWithMocks()
		defer cleanup()
		ts.rag.answer = &domain.GeneratedAnswer{Text: "Not sure.", NoContext: true}

		out, err := run("ask", "anything", "-k", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "(no relevant documents found)")
		assert.Equal(t, 2, ts.rag.lastTopK)
	})

	t.Run("failure", func(t *testing.T) {
		ts, cleanup := setupTestServicesWithMocks()
		defer cleanup()
		ts.rag.err = errors.New("model overloaded")

		_, err := run("ask", "anything")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query failed: model overloaded")
	})

	t.Run("requires a question", func(t *testing.T) {
		_, err := run("ask")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
	})
}

func TestSearchCmd(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		ts, cleanup := setupTestServicesWithMocks()
		defer cleanup()
		ts.rag.result = domain.RetrievalResult{
			{Document: domain.Document{ID: "d1", Title: "First", Content: "alpha  beta\ngamma"}, Score: 0.8},
		}

		out, err := run("search", "alpha")
		require.NoError(t, err)
		assert.Contains(t, out, "[1] First (0.8000)")
		assert.Contains(t, out, "alpha beta gamma")
	})

	t.Run("json", func(t *testing.T) {
		ts, cleanup := setupTestServicesWithMocks()
		defer cleanup()
		ts.rag.result = domain.RetrievalResult{
			{Document: domain.Document{ID: "d1", SourceType: domain.SourceTypeText}, Score: 0.5},
		}

		out, err := run("search", "alpha", "--json", "-k", "3")
		require.NoError(t, err)

		var results []searchResultJSON
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "d1", results[0].ID)
		assert.Equal(t, "text", results[0].SourceType)
		assert.Equal(t, 3, ts.rag.lastTopK)
	})

	t.Run("empty", func(t *testing.T) {
		_, cleanup := setupTestServicesWithMocks()
		defer cleanup()

		out, err := run("search", "alpha")
		require.NoError(t, err)
		assert.Contains(t, out, "No results found.")
	})

	t.Run("requires exactly one arg", func(t *testing.T) {
		_, err := run("search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg(s)")
	})
}

func TestSnippet(t *testing.T) {
	long := make([]rune, snippetLength+10)
	for i := range long {
		long[i] = 'é'
	}
	s := snippet(string(long))
	assert.Equal(t, snippetLength+3, len([]rune(s)))
	assert.Equal(t, "a b", snippet(" a\n\tb "))
}

func TestRemoveCmd(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()
	ts.rag.docs["d1"] = domain.Document{ID: "d1", Content: "x"}

	out, err := run("remove", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed document: d1")

	out, err = run("remove", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "was not indexed")
}

func TestDocumentCmds(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	out, err := run("document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents indexed.")

	require.NoError(t, ts.rag.Ingest(t.Context(), domain.Document{
		ID: "d1", Title: "Guide", Content: "read me", SourceType: domain.SourceTypeMarkdown,
		CreatedAt: testTime, UpdatedAt: testTime, Metadata: map[string]any{"size": 7},
	}))

	out, err = run("document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents (1):")
	assert.Contains(t, out, "Guide")

	out, err = run("document", "content", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "read me")

	out, err = run("document", "details", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "Source type: markdown")
	assert.Contains(t, out, "2026-01-02 03:04:05")
	assert.Contains(t, out, "size: 7")

	_, err = run("document", "content", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestModelsCmds(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	out, err := run("models", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* test-model")
	assert.Contains(t, out, "other-model")

	out, err = run("models", "use", "other-model")
	require.NoError(t, err)
	assert.Contains(t, out, "Active model: other-model")
	assert.Equal(t, "other-model", ts.models.active)
	assert.Equal(t, []string{"other-model"}, ts.saved)

	_, err = run("models", "use", "unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestReembedCmd(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	out, err := run("reembed")
	require.NoError(t, err)
	assert.Contains(t, out, "Re-embedded 0 documents with test-model")
	assert.Empty(t, ts.saved)

	_, err = run("reembed", "--model", "other-model")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "other-model"}, ts.rag.reembeds)
	assert.Equal(t, []string{"other-model"}, ts.saved)

	ts.rag.err = domain.ErrReembedInProgress
	_, err = run("reembed")
	assert.ErrorIs(t, err, domain.ErrReembedInProgress)
}

func TestStatsCmd(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()
	ts.rag.docs["d1"] = domain.Document{ID: "d1"}

	out, err := run("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:    1")
	assert.Contains(t, out, "Active model: test-model (3 dims)")
}

func TestErrorsCmd(t *testing.T) {
	ts, cleanup := setupTestServicesWithMocks()
	defer cleanup()

	out, err := run("errors")
	require.NoError(t, err)
	assert.Contains(t, out, "No errors recorded.")

	ts.diag.records = []domain.ErrorRecord{{
		Time: testTime, Op: "embed", Kind: "rate_limited", StatusCode: 429, Attempts: 4, Message: "slow down",
	}}
	out, err = run("errors")
	require.NoError(t, err)
	assert.Contains(t, out, "HTTP 429 after 4 attempt(s): slow down")
}

func TestWatchCmd_RequiresDir(t *testing.T) {
	_, err := run("watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestMCPCmd_HasHTTPFlag(t *testing.T) {
	flag := mcpCmd.Flags().Lookup("http")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}
