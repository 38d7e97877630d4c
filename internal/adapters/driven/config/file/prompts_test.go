package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
)

func testDefaults() map[string]string {
	return map[string]string{
		driven.PromptGroundedSystem:  "Use the context.",
		driven.PromptNoContextSystem: "Nothing was found.",
	}
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	store, err := NewPromptStore("", testDefaults())
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ragctl", "prompts"), store.Dir())
}

func TestNewPromptStore_LazyInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	_, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "directory should not exist before first Load")
}

func TestPromptStore_Load_CreatesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGroundedSystem)
	require.NoError(t, err)
	assert.Equal(t, "Use the context.", prompt)

	for _, name := range []string{"grounded_system.txt", "no_context_system.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "`grounded_system.txt`")
}

func TestPromptStore_Load_CustomFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grounded_system.txt"), []byte("Answer like a pirate."), 0600))

	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGroundedSystem)
	require.NoError(t, err)
	assert.Equal(t, "Answer like a pirate.", prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptNoContextSystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "no_context_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptNoContextSystem)
	require.NoError(t, err)
	assert.Equal(t, "Nothing was found.", prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	first, err := store.Load(driven.PromptGroundedSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "grounded_system.txt"), []byte("changed"), 0600))

	cached, err := store.Load(driven.PromptGroundedSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptGroundedSystem)
	require.NoError(t, err)
	assert.Equal(t, "changed", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grounded_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("pre-existing"), 0600))

	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptNoContextSystem)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pre-existing", string(data))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grounded_system.txt"), []byte("\n\n  prompt content  \n\n"), 0600))

	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptGroundedSystem)
	require.NoError(t, err)
	assert.Equal(t, "prompt content", prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make(chan string, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptGroundedSystem)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- p
		}()
	}
	wg.Wait()
	close(results)

	for p := range results {
		assert.Equal(t, "Use the context.", p)
	}
}
