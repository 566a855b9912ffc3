package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkProse_SplitsOnHeadings(t *testing.T) {
	t.Parallel()

	src := "# Title\n\nIntro text.\n\n## Section One\n\nBody one.\n\n## Section Two\n\nBody two.\n"
	chunks := chunkProse(src, "markdown", Default())
	require.Len(t, chunks, 3)
	assert.Equal(t, "Title", chunks[0].Name)
	assert.Equal(t, "Section One", chunks[1].Name)
	assert.Equal(t, "Section Two", chunks[2].Name)
	for _, c := range chunks {
		assert.Equal(t, TypeSection, c.ChunkType)
	}
}

func TestChunkProse_HorizontalRuleBoundary(t *testing.T) {
	t.Parallel()

	src := "Some text.\n\n---\n\nMore text.\n"
	chunks := chunkProse(src, "text", Default())
	require.Len(t, chunks, 2)
}

func TestChunkProse_OverlapCarriesTailLines(t *testing.T) {
	t.Parallel()

	src := "# A\n\nline1\nline2\nline3\nline4\nline5\n\n# B\n\nnext section\n"
	opts := Default()
	chunks := chunkProse(src, "markdown", opts)
	require.Len(t, chunks, 2)
	// second chunk should carry the 3-line overlap from the tail of A.
	assert.True(t, strings.Contains(chunks[1].Content, "line5"))
}

func TestChunkProse_OversizedSectionSplitsOnParagraphs(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("# Huge\n\n")
	for i := 0; i < 50; i++ {
		b.WriteString(strings.Repeat("word ", 40))
		b.WriteString("\n\n")
	}
	opts := Default()
	opts.MaxChunkSize = 500
	chunks := chunkProse(b.String(), "markdown", opts)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), opts.MaxChunkSize+250)
	}
}
