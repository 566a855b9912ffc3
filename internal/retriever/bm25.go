package retriever

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/localrag/localrag/internal/store"
)

// bm25Document is what gets indexed per chunk. Corpus is the tokenized
// concatenation spec.md §4.6 step 3 specifies (content + " " + name + " " +
// chunk_type) and is the only field queries are scored against; the other
// fields are kept alongside for fidelity/debugging, not queried directly.
type bm25Document struct {
	Corpus    string `json:"corpus"`
	ChunkType string `json:"chunk_type"`
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
}

// bm25Index is an in-memory bleve index over a VectorStore snapshot,
// grounded in the teacher's internal/mcp/exact_searcher.go
// (buildBleveMapping, batched indexing).
type bm25Index struct {
	index bleve.Index
}

func newBM25Index(rows []store.Row) (*bm25Index, error) {
	index, err := bleve.NewMemOnly(buildBM25Mapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}

	batch := index.NewBatch()
	for _, row := range rows {
		doc := bm25Document{
			Corpus:    row.Content + " " + row.Name + " " + string(row.ChunkType),
			ChunkType: string(row.ChunkType),
			Name:      row.Name,
			FilePath:  row.FilePath,
		}
		if err := batch.Index(row.ChunkID, doc); err != nil {
			return nil, fmt.Errorf("index chunk %s: %w", row.ChunkID, err)
		}
		if batch.Size() >= 1000 {
			if err := index.Batch(batch); err != nil {
				return nil, fmt.Errorf("execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return nil, fmt.Errorf("execute final batch: %w", err)
		}
	}

	return &bm25Index{index: index}, nil
}

func buildBM25Mapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = "standard"

	keywordMapping := bleve.NewTextFieldMapping()
	keywordMapping.Analyzer = "keyword"

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("corpus", textMapping)
	doc.AddFieldMappingsAt("chunk_type", keywordMapping)
	doc.AddFieldMappingsAt("name", textMapping)
	doc.AddFieldMappingsAt("file_path", textMapping)

	im.DefaultMapping = doc
	return im
}

func (b *bm25Index) Close() error { return b.index.Close() }

// scoreAll returns, for each candidate in matches (same order), a BM25
// score normalized per spec.md §4.6 step 3: divided by 10 and clamped to
// [0,1]. The query is matched against the combined corpus field so a term
// hitting a chunk's name or chunk_type scores the same as one hitting its
// content. Candidates bleve doesn't score (no term overlap) get 0.
func (b *bm25Index) scoreAll(queryTokens []string, matches []store.Match) []float64 {
	scores := make([]float64, len(matches))
	if len(queryTokens) == 0 {
		return scores
	}

	q := bleve.NewMatchQuery(strings.Join(queryTokens, " "))
	q.SetField("corpus")

	req := bleve.NewSearchRequestOptions(q, len(matches)*4+50, 0, false)
	req.Fields = []string{}
	result, err := b.index.Search(req)
	if err != nil {
		return scores
	}

	rawByID := make(map[string]float64, len(result.Hits))
	for _, hit := range result.Hits {
		rawByID[hit.ID] = hit.Score
	}

	for i, m := range matches {
		raw, ok := rawByID[m.Row.ChunkID]
		if !ok {
			continue
		}
		norm := raw / 10.0
		if norm > 1.0 {
			norm = 1.0
		}
		if norm < 0 {
			norm = 0
		}
		scores[i] = norm
	}
	return scores
}

// tokenize lowercases and whitespace-splits text, the same normalization
// bleve's standard analyzer applies to indexed content, used here to build
// the query string fed to bm25Index.scoreAll.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
