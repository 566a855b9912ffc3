package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// hashEmbedder is the deterministic last-resort tier: expand-and-normalize
// a SHA-256 digest of the text to D dimensions in [-1, 1]. Re-searchable
// across runs, but the resulting vectors carry no semantic meaning, which
// is why Status always reports MethodHash so callers can warn the user.
type hashEmbedder struct {
	dim int
}

func newHashEmbedder(dim int) *hashEmbedder {
	return &hashEmbedder{dim: dim}
}

func (h *hashEmbedder) Dimension() int { return h.dim }

func (h *hashEmbedder) Embed(_ context.Context, text string, _ Mode) ([]float32, error) {
	return hashVector(text, h.dim), nil
}

func (h *hashEmbedder) EmbedBatch(_ context.Context, texts []string, _ Mode) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t, h.dim)
	}
	return out, nil
}

func (h *hashEmbedder) WarmUp(_ context.Context) error { return nil }

func (h *hashEmbedder) Status() Status {
	return Status{Method: MethodHash}
}

func (h *hashEmbedder) Close() error { return nil }

// hashVector expands a SHA-256 digest across dim float32 slots, cycling
// through the 32 hash bytes as needed, and normalizes each to [-1, 1].
func hashVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		offset := (i * 4) % (len(sum) - 3)
		val := binary.BigEndian.Uint32(sum[offset : offset+4])
		vec[i] = (float32(val)/float32(1<<32))*2.0 - 1.0
	}
	return vec
}
