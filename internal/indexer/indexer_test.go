package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrag/localrag/internal/embed"
)

func newTestIndexer(t *testing.T, rootDir string) *Indexer {
	t.Helper()
	idx, err := New(Config{
		RootDir:  rootDir,
		IndexDir: filepath.Join(rootDir, ".localrag"),
		Embedder: embed.NewMock(8),
	})
	require.NoError(t, err)
	return idx
}

func writeProjectFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

const calculatorSource = `class BasicCalculator:
    """A simple calculator."""

    def add(self, a, b):
        return a + b

    def subtract(self, a, b):
        return a - b

    def multiply(self, a, b):
        return a * b

    def divide(self, a, b):
        if b == 0:
            raise ValueError("Cannot divide by zero")
        return a / b
`

func TestIndexProject_BasicIndexThenSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "calculator.py", calculatorSource)

	idx := newTestIndexer(t, root)
	stats, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.GreaterOrEqual(t, stats.ChunksCreated, 5)

	rows := idx.Store().Scan(ctx)
	assert.GreaterOrEqual(t, len(rows), 5)

	var divideFound bool
	for _, r := range rows {
		if r.Name == "divide" {
			divideFound = true
			assert.Equal(t, "method", string(r.ChunkType))
			assert.Equal(t, "BasicCalculator", r.ParentClass)
		}
	}
	assert.True(t, divideFound)
}

func TestIndexProject_IncrementalReindexIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "calculator.py", calculatorSource)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)

	stats, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
}

func TestIndexProject_ModifiedFileReindexesOnlyThatFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "calculator.py", calculatorSource)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)

	before := idx.Manifest().Files["calculator.py"].Hash

	modified := calculatorSource + "\n# a note about edge cases\n"
	writeProjectFile(t, root, "calculator.py", modified)

	stats, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	after := idx.Manifest().Files["calculator.py"].Hash
	assert.NotEqual(t, before, after)
}

func TestIndexProject_DeletedFileRemovedFromStoreAndManifest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "calculator.py", calculatorSource)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "calculator.py")))

	stats, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)

	_, ok := idx.Manifest().Files["calculator.py"]
	assert.False(t, ok)

	rows := idx.Store().Scan(ctx)
	for _, r := range rows {
		assert.NotEqual(t, "calculator.py", r.FilePath)
	}
}

func TestIndexProject_EmptyProjectProducesEmptyManifest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	idx := newTestIndexer(t, root)

	stats, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 0, idx.Manifest().FileCount)
}

func TestIndexProject_ForceResetsStoreAndManifest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "calculator.py", calculatorSource)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)

	stats, err := idx.IndexProject(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
}

func TestUpdateFile_ReindexesSinglePath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package a\n\nfunc Foo() int { return 1 }\n")

	idx := newTestIndexer(t, root)
	_, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)

	writeProjectFile(t, root, "a.go", "package a\n\nfunc Foo() int { return 2 }\n")
	ok, err := idx.UpdateFile(ctx, "a.go")
	require.NoError(t, err)
	assert.True(t, ok)

	rows := idx.Store().Scan(ctx)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		if r.FilePath == "a.go" {
			assert.Contains(t, r.Content, "return 2")
		}
	}
}

func TestDeleteFile_RemovesFromStoreAndManifest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package a\n\nfunc Foo() int { return 1 }\n")

	idx := newTestIndexer(t, root)
	_, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)

	ok, err := idx.DeleteFile(ctx, "a.go")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 0, idx.Store().Count())
	_, exists := idx.Manifest().Files["a.go"]
	assert.False(t, exists)
}

func TestProjectStats_ReflectsManifest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	writeProjectFile(t, root, "calculator.py", calculatorSource)

	idx := newTestIndexer(t, root)
	_, err := idx.IndexProject(ctx, false)
	require.NoError(t, err)

	st := idx.ProjectStats(ctx)
	assert.Equal(t, 1, st.FileCount)
	assert.GreaterOrEqual(t, st.ChunkCount, 5)
}
