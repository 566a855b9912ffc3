package retriever

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrag/localrag/internal/chunk"
	"github.com/localrag/localrag/internal/embed"
	"github.com/localrag/localrag/internal/store"
)

// fixedEmbedder returns a constant vector for every Embed call, letting
// tests control candidate pool membership via store.Nearest independent of
// the query text, while BM25 does the discriminating.
type fixedEmbedder struct {
	vec []float32
}

func (f fixedEmbedder) Dimension() int { return len(f.vec) }
func (f fixedEmbedder) Embed(_ context.Context, _ string, _ embed.Mode) ([]float32, error) {
	return f.vec, nil
}
func (f fixedEmbedder) EmbedBatch(_ context.Context, texts []string, _ embed.Mode) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}
func (f fixedEmbedder) WarmUp(_ context.Context) error { return nil }
func (f fixedEmbedder) Status() embed.Status           { return embed.Status{Method: embed.MethodHash} }
func (f fixedEmbedder) Close() error                   { return nil }

func mustStore(t *testing.T, dim int) *store.Store {
	t.Helper()
	s, err := store.OpenOrCreate(t.TempDir(), dim)
	require.NoError(t, err)
	return s
}

func TestSearch_HybridBeatsPureSemanticOnKeyword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	vec := []float32{1, 0, 0, 0}

	require.NoError(t, s.AddBatch(ctx, []chunk.Chunk{
		{ChunkID: "a", FilePath: "ranker.go", Content: "generic helper with no special keywords here at all", ChunkType: chunk.TypeFunction, Embedding: vec},
		{ChunkID: "b", FilePath: "bm25_scoring.go", Content: "implements BM25Okapi rank_bm25 search scoring for lexical relevance", ChunkType: chunk.TypeFunction, Embedding: vec},
		{ChunkID: "c", FilePath: "unrelated.go", Content: "totally unrelated content about nothing in particular", ChunkType: chunk.TypeFunction, Embedding: vec},
	}))

	r, err := Open(ctx, s, fixedEmbedder{vec: vec}, nil)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.Search(ctx, Query{Text: "BM25Okapi rank_bm25 search scoring", TopK: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, res := range results[:min(3, len(results))] {
		if res.Chunk.ChunkID == "b" {
			found = true
			break
		}
	}
	assert.True(t, found, "bm25-favored chunk should be in the top 3")

	var bScore float64
	var others []float64
	for _, res := range results {
		if res.Chunk.ChunkID == "b" {
			bScore = res.BM25Score
		} else {
			others = append(others, res.BM25Score)
		}
	}
	for _, o := range others {
		assert.Greater(t, bScore, o)
	}
}

func TestSearch_BM25MatchesChunkNameNotJustContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	vec := []float32{1, 0, 0, 0}

	require.NoError(t, s.AddBatch(ctx, []chunk.Chunk{
		{ChunkID: "a", FilePath: "calc.go", Name: "calculate_total", Content: "sums up the line items and applies tax", ChunkType: chunk.TypeFunction, Embedding: vec},
		{ChunkID: "b", FilePath: "other.go", Name: "helper", Content: "does something else entirely unrelated", ChunkType: chunk.TypeFunction, Embedding: vec},
	}))

	r, err := Open(ctx, s, fixedEmbedder{vec: vec}, nil)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.Search(ctx, Query{Text: "calculate_total", TopK: 2})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var aScore, bScore float64
	for _, res := range results {
		switch res.Chunk.ChunkID {
		case "a":
			aScore = res.BM25Score
		case "b":
			bScore = res.BM25Score
		}
	}
	assert.Greater(t, aScore, 0.0, "a query matching only the chunk name should still score on BM25")
	assert.Greater(t, aScore, bScore)
}

func TestSearch_DiversityCapsPerFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	vec := []float32{0, 1, 0, 0}

	chunks := make([]chunk.Chunk, 0, 10)
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunk.Chunk{
			ChunkID:   itoaID(i),
			FilePath:  "bigfile.go",
			Content:   "near identical helper function body that repeats across this file",
			ChunkType: chunk.TypeFunction,
			Embedding: vec,
		})
	}
	require.NoError(t, s.AddBatch(ctx, chunks))

	r, err := Open(ctx, s, fixedEmbedder{vec: vec}, nil)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.Search(ctx, Query{Text: "near identical helper function body", TopK: 8})
	require.NoError(t, err)

	counts := map[string]int{}
	for _, res := range results {
		counts[res.Chunk.FilePath]++
	}
	assert.LessOrEqual(t, counts["bigfile.go"], 2)
}

func TestSearch_EmptyStoreReturnsEmptyNotError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	r, err := Open(ctx, s, fixedEmbedder{vec: []float32{1, 0, 0, 0}}, nil)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.Search(ctx, Query{Text: "anything", TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ContextExpansionPopulatesNeighborsAndParent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	vec := []float32{1, 1, 0, 0}

	require.NoError(t, s.AddBatch(ctx, []chunk.Chunk{
		{ChunkID: "cls", FilePath: "calc.py", Content: "class BasicCalculator:", ChunkType: chunk.TypeClass, Name: "BasicCalculator", Embedding: vec},
		{ChunkID: "m1", FilePath: "calc.py", Content: "def add(self, a, b): return a + b", ChunkType: chunk.TypeMethod, Name: "add", ParentClass: "BasicCalculator", NextChunkID: "m2", Embedding: vec},
		{ChunkID: "m2", FilePath: "calc.py", Content: "def subtract(self, a, b): return a - b", ChunkType: chunk.TypeMethod, Name: "subtract", ParentClass: "BasicCalculator", PrevChunkID: "m1", Embedding: vec},
	}))

	r, err := Open(ctx, s, fixedEmbedder{vec: vec}, nil)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.Search(ctx, Query{Text: "add subtract calculator", TopK: 5, IncludeContext: true})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var addResult *Result
	for i := range results {
		if results[i].Chunk.ChunkID == "m1" {
			addResult = &results[i]
		}
	}
	require.NotNil(t, addResult)
	assert.Contains(t, addResult.ContextAfter, "subtract")
	require.NotNil(t, addResult.ParentChunk)
	assert.Equal(t, "BasicCalculator", addResult.ParentChunk.Name)
}

func TestSearch_RecencyBoostFromManifestMtimes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	vec := []float32{1, 0, 0, 0}

	require.NoError(t, s.AddBatch(ctx, []chunk.Chunk{
		{ChunkID: "old", FilePath: "old.go", Content: "a stable helper that has not changed recently at all", ChunkType: chunk.TypeFunction, Embedding: vec},
		{ChunkID: "new", FilePath: "new.go", Content: "a stable helper that has not changed recently at all", ChunkType: chunk.TypeFunction, Embedding: vec},
	}))

	mtimes := map[string]time.Time{
		"old.go": time.Now().Add(-60 * 24 * time.Hour),
		"new.go": time.Now().Add(-1 * time.Hour),
	}

	r, err := Open(ctx, s, fixedEmbedder{vec: vec}, mtimes)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.Search(ctx, Query{Text: "a stable helper that has not changed recently at all", TopK: 2})
	require.NoError(t, err)
	// Both chunks share their content, so the diversity filter keeps only
	// the higher-scored one; the recency boost decides which.
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Chunk.ChunkID)
}

func TestGetFunction_FiltersByNameAndType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	vec := []float32{1, 0, 0, 0}

	require.NoError(t, s.AddBatch(ctx, []chunk.Chunk{
		{ChunkID: "f1", FilePath: "calc.py", Content: "def divide(self, a, b):\n    if b == 0:\n        raise ValueError(\"Cannot divide by zero\")\n    return a / b", ChunkType: chunk.TypeMethod, Name: "divide", Embedding: vec},
		{ChunkID: "f2", FilePath: "calc.py", Content: "def add(self, a, b): return a + b", ChunkType: chunk.TypeMethod, Name: "add", Embedding: vec},
		{ChunkID: "c1", FilePath: "calc.py", Content: "class BasicCalculator:", ChunkType: chunk.TypeClass, Name: "BasicCalculator", Embedding: vec},
	}))

	r, err := Open(ctx, s, fixedEmbedder{vec: vec}, nil)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.GetFunction(ctx, "divide", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "divide", results[0].Chunk.Name)
}

func TestFindUsage_RetainsOnlyContentMatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := mustStore(t, 4)
	vec := []float32{1, 0, 0, 0}

	require.NoError(t, s.AddBatch(ctx, []chunk.Chunk{
		{ChunkID: "u1", FilePath: "a.go", Content: "result := CalculateTotal(items)", ChunkType: chunk.TypeFunction, Embedding: vec},
		{ChunkID: "u2", FilePath: "b.go", Content: "nothing relevant in here", ChunkType: chunk.TypeFunction, Embedding: vec},
	}))

	r, err := Open(ctx, s, fixedEmbedder{vec: vec}, nil)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.FindUsage(ctx, "CalculateTotal", 5)
	require.NoError(t, err)
	for _, res := range results {
		assert.Contains(t, res.Chunk.Content, "CalculateTotal")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func itoaID(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	var buf []byte
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	return string(buf)
}
