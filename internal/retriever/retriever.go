// Package retriever answers queries with ranked chunk results by fusing
// vector similarity with BM25 lexical scoring, re-ranking for quality
// signals, and enforcing result diversity. Grounded in the teacher's
// internal/mcp/exact_searcher.go for the BM25 index and in
// original_source/mini_rag/search.py's _smart_rerank /
// _apply_diversity_constraints for the scoring pipeline.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/localrag/localrag/internal/chunk"
	"github.com/localrag/localrag/internal/embed"
	"github.com/localrag/localrag/internal/store"
)

// Weights controls the semantic/lexical fusion in step 4 of the pipeline.
type Weights struct {
	Semantic float64
	BM25     float64
}

// DefaultWeights matches spec.md §4.6 step 4's documented defaults.
func DefaultWeights() Weights { return Weights{Semantic: 0.7, BM25: 0.3} }

// Query narrows a search beyond the raw text.
type Query struct {
	Text           string
	TopK           int
	Filters        store.Filters
	IncludeContext bool
	Weights        Weights
}

// Result is a single ranked chunk with its fused score and, when requested,
// the surrounding context.
type Result struct {
	Chunk         chunk.Chunk
	Score         float64
	SemanticScore float64
	BM25Score     float64
	ContextBefore string
	ContextAfter  string
	ParentChunk   *chunk.Chunk
}

// Retriever is a read-only, point-in-time snapshot of the store: its BM25
// index is built once at Open and never sees subsequent writes, per
// spec.md §4.6 step 3 ("a retriever instance is read-only; new writes
// require a new retriever").
type Retriever struct {
	store    *store.Store
	embedder embed.Embedder

	mu       sync.Mutex
	bm25     *bm25Index
	rowsByID map[string]store.Row
	mtimes   map[string]time.Time
}

// Open builds a Retriever over the current contents of s, scanning it once
// to construct the in-memory BM25 index (spec.md §5: "done eagerly once per
// retriever"). mtimes supplies each file's last-modified time for the
// recency re-ranking boost (step 5) — sourced from the caller's manifest,
// since chunk rows carry no mtime of their own.
func Open(ctx context.Context, s *store.Store, embedder embed.Embedder, mtimes map[string]time.Time) (*Retriever, error) {
	rows := s.Scan(ctx)

	rowsByID := make(map[string]store.Row, len(rows))
	for _, r := range rows {
		rowsByID[r.ChunkID] = r
	}

	idx, err := newBM25Index(rows)
	if err != nil {
		return nil, fmt.Errorf("build bm25 index: %w", err)
	}

	if mtimes == nil {
		mtimes = map[string]time.Time{}
	}

	return &Retriever{
		store:    s,
		embedder: embedder,
		bm25:     idx,
		rowsByID: rowsByID,
		mtimes:   mtimes,
	}, nil
}

// Close releases the BM25 index's resources.
func (r *Retriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bm25 != nil {
		return r.bm25.Close()
	}
	return nil
}

// Search runs the 8-step hybrid pipeline from spec.md §4.6 and returns up
// to q.TopK ranked results. An empty candidate pool returns an empty slice,
// not an error; an embedder failure for the query vector is fatal, per
// spec.md's failure semantics.
func (r *Retriever) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.TopK <= 0 {
		q.TopK = 10
	}
	weights := q.Weights
	if weights.Semantic == 0 && weights.BM25 == 0 {
		weights = DefaultWeights()
	}

	// Step 1: embed the query (the embedder's own cache covers repeat
	// queries).
	queryVec, err := r.embedder.Embed(ctx, q.Text, embed.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Step 2: over-fetch candidates and convert distance to similarity.
	pool := q.TopK * 4
	matches, err := r.store.Nearest(ctx, queryVec, pool, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("nearest-neighbor search: %w", err)
	}
	if len(matches) == 0 {
		return []Result{}, nil
	}

	// Step 3: BM25 lexical score per candidate.
	queryTokens := tokenize(q.Text)
	r.mu.Lock()
	bm25Scores := r.bm25.scoreAll(queryTokens, matches)
	r.mu.Unlock()

	// Step 4: hybrid fusion.
	results := make([]Result, 0, len(matches))
	for i, m := range matches {
		sim := 1.0 / (1.0 + float64(m.Distance))
		bm25Norm := bm25Scores[i]
		combined := weights.Semantic*sim + weights.BM25*bm25Norm
		results = append(results, Result{
			Chunk:         m.Row.Chunk,
			Score:         combined,
			SemanticScore: sim,
			BM25Score:     bm25Norm,
		})
	}

	// Step 5: zero-cost re-ranking boosts.
	r.rerank(results)

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	// Step 6: diversity filter.
	diverse := applyDiversity(results, q.TopK)

	// Step 7: optional context expansion.
	if q.IncludeContext {
		r.expandContext(diverse)
	}

	return diverse, nil
}

func (r *Retriever) rerank(results []Result) {
	now := time.Now()
	for i := range results {
		c := &results[i].Chunk
		score := results[i].Score

		if matchesImportantPattern(c.FilePath) {
			score *= 1.20
		}

		if mtime, ok := r.mtimes[c.FilePath]; ok {
			age := now.Sub(mtime)
			switch {
			case age <= 7*24*time.Hour:
				score *= 1.10
			case age <= 30*24*time.Hour:
				score *= 1.05
			}
		}

		switch c.ChunkType {
		case chunk.TypeFunction, chunk.TypeClass, chunk.TypeMethod, chunk.TypeAsyncFunction:
			score *= 1.10
		}

		trimmed := strings.TrimSpace(c.Content)
		if len(trimmed) < 50 {
			score *= 0.90
		}

		if hasGoodStructure(trimmed) {
			score *= 1.02
		}

		results[i].Score = score
	}
}

var importantPatterns = []string{
	"readme", "main.", "index.", "__init__", "config",
	"setup", "install", "getting", "started", "docs/",
	"documentation", "guide", "tutorial", "example",
}

func matchesImportantPattern(filePath string) bool {
	lower := strings.ToLower(filePath)
	for _, p := range importantPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func hasGoodStructure(trimmed string) bool {
	lines := strings.Split(trimmed, "\n")
	nonEmpty := 0
	longLine := false
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		nonEmpty++
		if len(l) > 10 {
			longLine = true
		}
	}
	return nonEmpty >= 3 && longLine
}

func (r *Retriever) expandContext(results []Result) {
	for i := range results {
		c := results[i].Chunk
		if c.PrevChunkID != "" {
			if prev, ok := r.rowsByID[c.PrevChunkID]; ok {
				results[i].ContextBefore = prev.Content
			}
		}
		if c.NextChunkID != "" {
			if next, ok := r.rowsByID[c.NextChunkID]; ok {
				results[i].ContextAfter = next.Content
			}
		}
		if c.ParentClass != "" {
			for _, row := range r.rowsByID {
				if row.FilePath == c.FilePath && row.ChunkType == chunk.TypeClass && row.Name == c.ParentClass {
					parent := row.Chunk
					results[i].ParentChunk = &parent
					break
				}
			}
		}
	}
}
