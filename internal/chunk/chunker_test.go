package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_GoFunctions(t *testing.T) {
	t.Parallel()

	src := `package sample

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`
	chunks := File("sample.go", "/abs/sample.go", src, Default())
	require.Len(t, chunks, 2)
	assert.Equal(t, "Add", chunks[0].Name)
	assert.Equal(t, TypeFunction, chunks[0].ChunkType)
	assert.Equal(t, "Sub", chunks[1].Name)
}

func TestFile_LinkWiring(t *testing.T) {
	t.Parallel()

	src := "func A() {\n\treturn\n}\n\nfunc B() {\n\treturn\n}\n"
	chunks := File("x.go", "/abs/x.go", src, Default())
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 2, chunks[0].TotalChunks)
	assert.Empty(t, chunks[0].PrevChunkID)
	assert.Equal(t, chunks[1].ChunkID, chunks[0].NextChunkID)

	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, chunks[0].ChunkID, chunks[1].PrevChunkID)
	assert.Empty(t, chunks[1].NextChunkID)

	for _, c := range chunks {
		assert.NotEmpty(t, c.ChunkID)
		assert.Equal(t, "x.go", c.FilePath)
		assert.Equal(t, "/abs/x.go", c.AbsolutePath)
		assert.LessOrEqual(t, c.StartLine, c.EndLine)
		assert.LessOrEqual(t, c.EndLine, c.FileLines)
		assert.NotEmpty(t, c.IndexedAt)
	}
}

func TestFile_ChunkIDUniqueAcrossFiles(t *testing.T) {
	t.Parallel()

	src := "func A() {\n\treturn\n}\n"
	a := File("pkg/a.go", "/abs/pkg/a.go", src, Default())
	b := File("pkg/b.go", "/abs/pkg/b.go", src, Default())
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].ChunkID, b[0].ChunkID)
}

func TestFile_OversizedChunkSubdivides(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("func Big() {\n")
	for i := 0; i < 1200; i++ {
		b.WriteString("\tx := 1\n")
	}
	b.WriteString("}\n")

	opts := Default()
	chunks := File("big.go", "/abs/big.go", b.String(), opts)
	require.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks {
		lineCount := strings.Count(c.Content, "\n") + 1
		assert.LessOrEqual(t, lineCount, opts.MaxChunkSize+1)
	}
	assert.Contains(t, chunks[0].Name, "Big_part")
}

func TestFile_MergesUndersizedChunks(t *testing.T) {
	t.Parallel()

	src := "def helper():\n    pass\n\ndef another():\n    pass\n"
	chunks := File("tiny.py", "/abs/tiny.py", src, Options{MaxChunkSize: 1000, MinChunkSize: 10})
	require.GreaterOrEqual(t, len(chunks), 1)
	if len(chunks) == 1 {
		assert.Contains(t, chunks[0].Content, "helper")
		assert.Contains(t, chunks[0].Content, "another")
	}
}

func TestFile_EmptyContent(t *testing.T) {
	t.Parallel()

	chunks := File("empty.txt", "/abs/empty.txt", "", Default())
	assert.Empty(t, chunks)
}

func TestFile_ExactlyAtMaxChunkSize(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("func Exact() {\n")
	for i := 0; i < 997; i++ {
		b.WriteString("\tx := 1\n")
	}
	b.WriteString("}\n")

	opts := Default()
	chunks := File("exact.go", "/abs/exact.go", b.String(), opts)
	require.Len(t, chunks, 1)
}
