package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStructured_JSONIsSingleChunk(t *testing.T) {
	t.Parallel()

	src := `{"a": 1, "b": {"c": 2}}`
	chunks := chunkStructured(src, "json", Default())
	require.Len(t, chunks, 1)
	assert.Equal(t, TypeConfig, chunks[0].ChunkType)
	assert.Equal(t, src, chunks[0].Content)
}

func TestChunkStructured_YAMLSplitsOnTopLevelKeys(t *testing.T) {
	t.Parallel()

	src := "database:\n  host: localhost\n  port: 5432\n\nlogging:\n  level: info\n"
	chunks := chunkStructured(src, "yaml", Default())
	require.Len(t, chunks, 2)
	assert.Equal(t, "database", chunks[0].Name)
	assert.Equal(t, "logging", chunks[1].Name)
}

func TestChunkStructured_INISplitsOnSections(t *testing.T) {
	t.Parallel()

	src := "[server]\nhost = localhost\nport = 8080\n\n[client]\ntimeout = 30\n"
	chunks := chunkStructured(src, "ini", Default())
	require.Len(t, chunks, 2)
	assert.Equal(t, "server", chunks[0].Name)
	assert.Equal(t, "client", chunks[1].Name)
}
