// Package embed implements the Embedder capability: mapping chunk or query
// text to fixed-dimension dense vectors, with a remote/local/hash fallback
// ladder so indexing always completes even with no model available.
package embed

import "context"

// Mode distinguishes query embeddings from passage (chunk) embeddings —
// some models produce measurably better retrieval quality when the caller
// tells them which side of the search they're embedding for.
type Mode string

const (
	ModeQuery   Mode = "query"
	ModePassage Mode = "passage"
)

// Method identifies which tier of the fallback ladder actually produced an
// embedding.
type Method string

const (
	MethodRemote Method = "remote"
	MethodLocal  Method = "local"
	MethodHash   Method = "hash"
)

// Status reports which tier is currently active, for surfacing to users —
// the hash tier is deterministic but semantically meaningless, so callers
// need to know when they're on it.
type Status struct {
	Method   Method `json:"method"`
	Model    string `json:"model,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Embedder is the only interface the indexing/retrieval core depends on.
type Embedder interface {
	Dimension() int
	Embed(ctx context.Context, text string, mode Mode) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error)
	WarmUp(ctx context.Context) error
	Status() Status
	Close() error
}
