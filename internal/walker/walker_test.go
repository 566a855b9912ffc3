package walker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrag/localrag/internal/manifest"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScan_NewFilesAllNeedProcessing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\nfunc main() {}\n")
	writeFile(t, root, "README.md", "# hi\n")

	w, err := New(Options{Root: root, Include: []string{"*.go", "*.md"}})
	require.NoError(t, err)

	result, err := w.Scan(manifest.New())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "README.md"}, result.ToProcess)
	assert.Empty(t, result.ToDelete)
}

func TestScan_UnchangedFileSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "main.go", "package main\n")
	info, err := os.Stat(path)
	require.NoError(t, err)

	hash, err := HashFile(path)
	require.NoError(t, err)

	m := manifest.New()
	m.Put("main.go", manifest.FileRecord{Hash: hash, Size: info.Size(), Mtime: info.ModTime()})

	w, err := New(Options{Root: root, Include: []string{"*.go"}})
	require.NoError(t, err)

	result, err := w.Scan(m)
	require.NoError(t, err)
	assert.Empty(t, result.ToProcess)
}

func TestScan_ContentChangedWithPreservedStatStillDetected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "main.go", "package main\n")
	info, err := os.Stat(path)
	require.NoError(t, err)

	// Manifest has a different hash but identical size/mtime to disk —
	// the edge case spec.md calls out explicitly.
	m := manifest.New()
	m.Put("main.go", manifest.FileRecord{Hash: "stale-hash", Size: info.Size(), Mtime: info.ModTime()})

	w, err := New(Options{Root: root, Include: []string{"*.go"}})
	require.NoError(t, err)

	result, err := w.Scan(m)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, result.ToProcess)
}

func TestScan_DeletedFileSwept(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, err := New(Options{Root: root, Include: []string{"*.go"}})
	require.NoError(t, err)

	m := manifest.New()
	m.Put("gone.go", manifest.FileRecord{Hash: "x", Size: 1, Mtime: time.Now()})

	result, err := w.Scan(m)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone.go"}, result.ToDelete)
}

func TestScan_ExcludePatternSkipsDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.js", "console.log(1)\n")
	writeFile(t, root, "src/index.js", "console.log(1)\n")

	w, err := New(Options{Root: root, Include: []string{"**/*.js"}, Exclude: []string{"node_modules/**"}})
	require.NoError(t, err)

	result, err := w.Scan(manifest.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/index.js"}, result.ToProcess)
}

func TestScan_OversizedFileRejected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "big.go", "package main\n")

	w, err := New(Options{Root: root, Include: []string{"*.go"}, MaxFileSize: 1})
	require.NoError(t, err)

	result, err := w.Scan(manifest.New())
	require.NoError(t, err)
	assert.Empty(t, result.ToProcess)
}

func TestScan_UndersizedFileRejected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "tiny.go", "x")

	w, err := New(Options{Root: root, Include: []string{"*.go"}, MinFileSize: 100})
	require.NoError(t, err)

	result, err := w.Scan(manifest.New())
	require.NoError(t, err)
	assert.Empty(t, result.ToProcess)
}

func TestScan_ExtensionlessFileSniffed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "myscript", "#!/usr/bin/env python3\nprint('hi')\n")
	writeFile(t, root, "binarylike", "\x00\x01\x02not text")

	w, err := New(Options{Root: root, Include: []string{"*.go", "*.md"}})
	require.NoError(t, err)

	result, err := w.Scan(manifest.New())
	require.NoError(t, err)
	assert.Contains(t, result.ToProcess, "myscript")
	assert.NotContains(t, result.ToProcess, "binarylike")
}
