// Package store persists chunks and their embeddings, and answers
// approximate nearest-neighbor queries over them. It is backed by
// chromem-go, grounded in the teacher's internal/mcp/chromem_searcher.go.
package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/localrag/localrag/internal/chunk"
)

const collectionName = "chunks"

// Row is a stored chunk together with its embedding, reconstructed from
// chromem metadata.
type Row struct {
	chunk.Chunk
}

// Match pairs a stored row with its distance from a query vector, ascending
// by distance per spec.md §4.4.
type Match struct {
	Row      Row
	Distance float32
}

// Filters narrows a nearest() query by chunk_type, language, or a glob
// against file_path.
type Filters struct {
	ChunkTypes []string
	Languages  []string
	FileGlob   string
}

// Stats summarizes store contents for the CLI `status` command.
type Stats struct {
	TotalChunks int
	UniqueFiles int
	ChunkTypes  map[string]int
	Languages   map[string]int
}

// Store is the VectorStore capability from spec.md §4.4.
type Store struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	dim        int
	dir        string
}

// OpenOrCreate opens (or creates) a persistent store rooted at dir, sized
// for dim-dimensional embeddings. If an existing collection was built with
// a different dimension, it is dropped and recreated — the documented
// destructive behavior from spec.md §4.4; the Indexer is expected to
// re-index from scratch afterward. The declared dimension is tracked in a
// small sidecar file since chromem-go's collection metadata doesn't expose
// one directly.
func OpenOrCreate(dir string, dim int) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store at %s: %w", dir, err)
	}

	s := &Store{db: db, dim: dim, dir: dir}

	existing := db.GetCollection(collectionName, nil)
	storedDim, hadDim := readDimensionMarker(dir)

	if existing != nil && hadDim && storedDim != dim {
		if err := db.DeleteCollection(collectionName); err != nil {
			return nil, fmt.Errorf("drop mismatched collection: %w", err)
		}
		existing = nil
	}

	if existing == nil {
		col, err := db.CreateCollection(collectionName, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("create collection: %w", err)
		}
		s.collection = col
	} else {
		s.collection = existing
	}

	if err := writeDimensionMarker(dir, dim); err != nil {
		return nil, fmt.Errorf("write dimension marker: %w", err)
	}

	return s, nil
}

// Dimension returns the store's fixed embedding width.
func (s *Store) Dimension() int { return s.dim }

// UpsertFile atomically replaces all rows for filePath with chunks, per
// spec.md Invariant 3 (file atomicity): it deletes first, then adds, under
// the store's write lock so no reader observes a partial set.
func (s *Store) UpsertFile(ctx context.Context, filePath string, chunks []chunk.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.collection.Delete(ctx, map[string]string{"file_path": filePath}, nil); err != nil {
		return fmt.Errorf("delete existing rows for %s: %w", filePath, err)
	}
	for _, c := range chunks {
		if len(c.Embedding) != s.dim {
			return fmt.Errorf("chunk %s has embedding dimension %d, store expects %d", c.ChunkID, len(c.Embedding), s.dim)
		}
		doc, err := toDocument(c)
		if err != nil {
			return err
		}
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add chunk %s: %w", c.ChunkID, err)
		}
	}
	return nil
}

// DeleteFile removes every row for filePath.
func (s *Store) DeleteFile(ctx context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection.Delete(ctx, map[string]string{"file_path": filePath}, nil)
}

// AddBatch appends chunks without checking for an existing set for their
// file — used during bulk initial indexing where the caller guarantees no
// duplicate chunk_id.
func (s *Store) AddBatch(ctx context.Context, chunks []chunk.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if len(c.Embedding) != s.dim {
			return fmt.Errorf("chunk %s has embedding dimension %d, store expects %d", c.ChunkID, len(c.Embedding), s.dim)
		}
		doc, err := toDocument(c)
		if err != nil {
			return err
		}
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add chunk %s: %w", c.ChunkID, err)
		}
	}
	return nil
}

// Nearest returns up to k rows closest to queryVec, ascending by cosine
// distance, narrowed by filters.
func (s *Store) Nearest(ctx context.Context, queryVec []float32, k int, filters Filters) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	collection := s.collection

	where := map[string]string{}
	if len(filters.ChunkTypes) == 1 {
		where["chunk_type"] = filters.ChunkTypes[0]
	}
	if len(filters.Languages) == 1 {
		where["language"] = filters.Languages[0]
	}

	n := k
	if len(filters.ChunkTypes) > 1 || len(filters.Languages) > 1 || filters.FileGlob != "" {
		// Over-fetch when post-filtering will be needed, same headroom
		// strategy as the teacher's DefaultResultMultiplier.
		n = k * 4
	}
	if n > collection.Count() {
		n = collection.Count()
	}
	if n <= 0 {
		return nil, nil
	}

	docs, err := collection.QueryEmbedding(ctx, queryVec, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("nearest-neighbor query: %w", err)
	}

	var glob filepathGlob
	if filters.FileGlob != "" {
		glob = compileGlob(filters.FileGlob)
	}

	matches := make([]Match, 0, len(docs))
	for _, doc := range docs {
		row, err := fromDocument(doc)
		if err != nil {
			continue
		}
		if len(filters.ChunkTypes) > 1 && !containsStr(filters.ChunkTypes, string(row.ChunkType)) {
			continue
		}
		if len(filters.Languages) > 1 && !containsStr(filters.Languages, row.Language) {
			continue
		}
		if glob != nil && !glob.match(row.FilePath) {
			continue
		}
		matches = append(matches, Match{Row: row, Distance: 1 - doc.Similarity})
		if len(matches) >= k {
			break
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	return matches, nil
}

// GetByID returns a single row, or ok=false if no chunk with that id exists.
func (s *Store) GetByID(ctx context.Context, chunkID string) (Row, bool) {
	for _, row := range s.scanUnsorted(ctx) {
		if row.ChunkID == chunkID {
			return row, true
		}
	}
	return Row{}, false
}

// Scan returns every row in the store, used to build the BM25 index and
// resolve chunk links.
func (s *Store) Scan(ctx context.Context) []Row {
	return s.scanUnsorted(ctx)
}

func (s *Store) scanUnsorted(ctx context.Context) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	collection := s.collection

	count := collection.Count()
	if count == 0 {
		return nil
	}

	// chromem-go has no direct "list all documents" call; querying with
	// n = Count() against an arbitrary unit vector returns everything
	// ranked by similarity to it, which for a full scan we simply ignore
	// in favor of reading every row back.
	docs, err := collection.QueryEmbedding(ctx, scanProbeVector(s.dim), count, nil, nil)
	if err != nil {
		return nil
	}

	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		row, err := fromDocument(doc)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Reset drops every row in the store, used by the Indexer's `force` path
// (spec.md §4.5 step 2: "reset the manifest in memory and drop all rows
// from the store").
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	col, err := s.db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = col
	return nil
}

// Count returns the total number of stored chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}

// Stats aggregates chunk_type and language histograms across the store.
func (s *Store) Stats(ctx context.Context) Stats {
	rows := s.Scan(ctx)
	st := Stats{ChunkTypes: map[string]int{}, Languages: map[string]int{}}
	files := map[string]bool{}
	for _, r := range rows {
		st.TotalChunks++
		files[r.FilePath] = true
		st.ChunkTypes[string(r.ChunkType)]++
		st.Languages[r.Language]++
	}
	st.UniqueFiles = len(files)
	return st
}

// Close is a no-op: chromem-go persists synchronously on every write, so
// there is nothing to flush. It is kept for interface symmetry with the
// Embedder capability's Close().
func (s *Store) Close() error { return nil }

func containsStr(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

type filepathGlob struct{ pattern string }

func compileGlob(pattern string) filepathGlob { return filepathGlob{pattern: pattern} }

func (g filepathGlob) match(path string) bool {
	ok, err := filepath.Match(g.pattern, path)
	return err == nil && ok
}

// toDocument flattens a Chunk into chromem's Document shape: the vector
// goes in Embedding, everything else becomes string metadata, with
// non-string fields decimal-encoded, mirroring the teacher's
// chunkToChromemDocument-style metadata flattening.
func toDocument(c chunk.Chunk) (chromem.Document, error) {
	meta := map[string]string{
		"file_path":       c.FilePath,
		"absolute_path":   c.AbsolutePath,
		"chunk_type":      string(c.ChunkType),
		"name":            c.Name,
		"language":        c.Language,
		"parent_class":    c.ParentClass,
		"parent_function": c.ParentFunction,
		"prev_chunk_id":   c.PrevChunkID,
		"next_chunk_id":   c.NextChunkID,
		"start_line":      strconv.Itoa(c.StartLine),
		"end_line":        strconv.Itoa(c.EndLine),
		"chunk_index":     strconv.Itoa(c.ChunkIndex),
		"total_chunks":    strconv.Itoa(c.TotalChunks),
		"file_lines":      strconv.Itoa(c.FileLines),
		"indexed_at":      c.IndexedAt,
	}
	return chromem.Document{
		ID:        c.ChunkID,
		Content:   c.Content,
		Embedding: c.Embedding,
		Metadata:  meta,
	}, nil
}

func fromDocument(doc chromem.Result) (Row, error) {
	m := doc.Metadata
	c := chunk.Chunk{
		ChunkID:        doc.ID,
		FilePath:       m["file_path"],
		AbsolutePath:   m["absolute_path"],
		Content:        doc.Content,
		ChunkType:      chunk.Type(m["chunk_type"]),
		Name:           m["name"],
		Language:       m["language"],
		ParentClass:    m["parent_class"],
		ParentFunction: m["parent_function"],
		PrevChunkID:    m["prev_chunk_id"],
		NextChunkID:    m["next_chunk_id"],
		IndexedAt:      m["indexed_at"],
		Embedding:      doc.Embedding,
	}
	c.StartLine = atoiSafe(m["start_line"])
	c.EndLine = atoiSafe(m["end_line"])
	c.ChunkIndex = atoiSafe(m["chunk_index"])
	c.TotalChunks = atoiSafe(m["total_chunks"])
	c.FileLines = atoiSafe(m["file_lines"])
	return Row{Chunk: c}, nil
}

// scanProbeVector returns a fixed unit vector used only to drive a
// full-collection QueryEmbedding for Scan(); its direction is irrelevant
// since every row is read back regardless of rank.
func scanProbeVector(dim int) []float32 {
	v := make([]float32, dim)
	if dim == 0 {
		return v
	}
	component := float32(1 / math.Sqrt(float64(dim)))
	for i := range v {
		v[i] = component
	}
	return v
}

func dimensionMarkerPath(dir string) string {
	return filepath.Join(dir, ".dimension")
}

func readDimensionMarker(dir string) (int, bool) {
	data, err := os.ReadFile(dimensionMarkerPath(dir))
	if err != nil {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeDimensionMarker(dir string, dim int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(dimensionMarkerPath(dir), []byte(strconv.Itoa(dim)), 0o644)
}

func atoiSafe(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
