package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePython = `class UserRepository:
    def __init__(self, db):
        self.db = db

    def find(self, user_id):
        return self.db.get(user_id)


def top_level_helper(x):
    return x + 1


async def fetch_remote(url):
    return await http.get(url)
`

func TestChunkPython_ExtractsClassAndMethods(t *testing.T) {
	t.Parallel()

	chunks := chunkPython(samplePython, Default())
	require.NotEmpty(t, chunks)

	var class *Chunk
	var methods []Chunk
	for i := range chunks {
		switch chunks[i].ChunkType {
		case TypeClass:
			class = &chunks[i]
		case TypeMethod:
			methods = append(methods, chunks[i])
		}
	}

	require.NotNil(t, class)
	assert.Equal(t, "UserRepository", class.Name)

	require.Len(t, methods, 2)
	for _, m := range methods {
		assert.Equal(t, "UserRepository", m.ParentClass)
	}
}

func TestChunkPython_TopLevelFunctionAndAsync(t *testing.T) {
	t.Parallel()

	chunks := chunkPython(samplePython, Default())

	var fn, asyncFn *Chunk
	for i := range chunks {
		if chunks[i].Name == "top_level_helper" {
			fn = &chunks[i]
		}
		if chunks[i].Name == "fetch_remote" {
			asyncFn = &chunks[i]
		}
	}
	require.NotNil(t, fn)
	assert.Equal(t, TypeFunction, fn.ChunkType)
	assert.Empty(t, fn.ParentClass)

	require.NotNil(t, asyncFn)
	assert.Equal(t, TypeAsyncFunction, asyncFn.ChunkType)
}

const decoratedPython = `import functools


@functools.lru_cache(maxsize=None)
def cached_lookup(key):
    return key.upper()


class Service:
    @staticmethod
    @functools.wraps(cached_lookup)
    def handle(request):
        return cached_lookup(request.key)
`

func TestChunkPython_DecoratedDefinitionsIncludeDecoratorsInRange(t *testing.T) {
	t.Parallel()

	chunks := chunkPython(decoratedPython, Default())

	var fn, method *Chunk
	for i := range chunks {
		if chunks[i].Name == "cached_lookup" {
			fn = &chunks[i]
		}
		if chunks[i].Name == "handle" {
			method = &chunks[i]
		}
	}

	require.NotNil(t, fn)
	assert.Equal(t, 4, fn.StartLine, "range should start at the decorator line, not the def line")
	assert.Contains(t, fn.Content, "@functools.lru_cache")

	require.NotNil(t, method)
	assert.Equal(t, TypeMethod, method.ChunkType)
	assert.Equal(t, "Service", method.ParentClass)
	assert.Contains(t, method.Content, "@staticmethod")
	assert.Contains(t, method.Content, "@functools.wraps")
}

func TestChunkPython_UnparseableFallsBackToGeneric(t *testing.T) {
	t.Parallel()

	// Deliberately malformed Python; tree-sitter is error-tolerant so this
	// mostly exercises that we don't panic and still produce chunks.
	chunks := chunkPython("def broken(:\n    pass\n", Default())
	assert.NotNil(t, chunks)
}
