package embed

import "context"

// ladderEmbedder wraps a primary tier with a hash fallback. Batch calls
// that fail outright retry item-by-item so a single bad input (or a
// transient remote hiccup) doesn't sink the whole batch — per spec.md
// §4.3, a per-item failure substitutes the deterministic hash vector for
// that item only.
type ladderEmbedder struct {
	primary Embedder
	hash    *hashEmbedder
}

func withHashFallback(primary Embedder, dim int) Embedder {
	return &ladderEmbedder{primary: primary, hash: newHashEmbedder(dim)}
}

func (l *ladderEmbedder) Dimension() int { return l.primary.Dimension() }

func (l *ladderEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	v, err := l.primary.Embed(ctx, text, mode)
	if err != nil {
		return l.hash.Embed(ctx, text, mode)
	}
	return v, nil
}

func (l *ladderEmbedder) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	out, err := l.primary.EmbedBatch(ctx, texts, mode)
	if err == nil {
		return out, nil
	}

	// Whole-batch failure: fall back per item so the indexer still makes
	// progress on everything else.
	results := make([][]float32, len(texts))
	for i, t := range texts {
		v, itemErr := l.primary.Embed(ctx, t, mode)
		if itemErr != nil {
			v, _ = l.hash.Embed(ctx, t, mode)
		}
		results[i] = v
	}
	return results, nil
}

func (l *ladderEmbedder) WarmUp(ctx context.Context) error {
	return l.primary.WarmUp(ctx)
}

func (l *ladderEmbedder) Status() Status {
	return l.primary.Status()
}

func (l *ladderEmbedder) Close() error {
	return l.primary.Close()
}
