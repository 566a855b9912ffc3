// Package chunk splits file content into structurally coherent, line-addressed
// regions with the metadata the rest of localrag needs to embed, store, and
// later re-stitch them (links, parent references, line ranges).
package chunk

// Type enumerates the chunk_type values a Chunker may produce.
type Type string

const (
	TypeFunction      Type = "function"
	TypeMethod        Type = "method"
	TypeAsyncFunction Type = "async_function"
	TypeClass         Type = "class"
	TypeModule        Type = "module"
	TypeSection       Type = "section"
	TypeConfig        Type = "config"
	TypeConfigSection Type = "config_section"
	TypeDocument      Type = "document"
	TypeCodeBlock     Type = "code_block"
)

// Chunk is a contiguous, structurally bounded region of one file.
type Chunk struct {
	ChunkID      string `json:"chunk_id"`
	FilePath     string `json:"file_path"`
	AbsolutePath string `json:"absolute_path"`
	Content      string `json:"content"`
	StartLine    int    `json:"start_line"`
	EndLine      int    `json:"end_line"`
	ChunkType    Type   `json:"chunk_type"`
	Name         string `json:"name"`
	Language     string `json:"language"`

	ParentClass    string `json:"parent_class,omitempty"`
	ParentFunction string `json:"parent_function,omitempty"`

	PrevChunkID string `json:"prev_chunk_id,omitempty"`
	NextChunkID string `json:"next_chunk_id,omitempty"`

	ChunkIndex   int `json:"chunk_index"`
	TotalChunks  int `json:"total_chunks"`
	FileLines    int `json:"file_lines"`

	IndexedAt string `json:"indexed_at"`

	// SourceEncoding records which rung of the decode fallback ladder
	// (§4.2) produced Content; carried through to the FileRecord's
	// `encoding` field by the Indexer.
	SourceEncoding string `json:"-"`

	Embedding []float32 `json:"embedding,omitempty"`
}

// Options configures chunking thresholds. Zero values are replaced with the
// package defaults (see Default()).
type Options struct {
	// MaxChunkSize for code chunk types is a line count; for prose
	// (section/document/config_section) chunk types it is a character
	// count. See SPEC_FULL.md §4.2 for why the unit differs by kind.
	MaxChunkSize int
	MinChunkSize int

	// OverlapLines is used when subdividing an oversized chunk. Code
	// defaults to 0, prose defaults to 3.
	OverlapLinesCode  int
	OverlapLinesProse int
}

// Default returns the spec's documented defaults.
func Default() Options {
	return Options{
		MaxChunkSize:      1000,
		MinChunkSize:      50,
		OverlapLinesCode:  0,
		OverlapLinesProse: 3,
	}
}

func (o Options) withDefaults() Options {
	d := Default()
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = d.MaxChunkSize
	}
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = d.MinChunkSize
	}
	if o.OverlapLinesCode < 0 {
		o.OverlapLinesCode = d.OverlapLinesCode
	}
	if o.OverlapLinesProse <= 0 {
		o.OverlapLinesProse = d.OverlapLinesProse
	}
	return o
}

// isProseType reports whether t is measured in characters (prose) rather
// than lines (code) for MaxChunkSize purposes.
func isProseType(t Type) bool {
	switch t {
	case TypeSection, TypeDocument, TypeConfigSection, TypeConfig:
		return true
	default:
		return false
	}
}
