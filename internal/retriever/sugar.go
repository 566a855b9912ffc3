package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/localrag/localrag/internal/store"
)

// GetFunction searches for a function or method by name, per spec.md §4.6's
// documented get_function entry point.
func (r *Retriever) GetFunction(ctx context.Context, name string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	results, err := r.Search(ctx, Query{
		Text:    fmt.Sprintf("function %s implementation definition", name),
		TopK:    topK,
		Filters: store.Filters{ChunkTypes: []string{"function", "method"}},
	})
	if err != nil {
		return nil, err
	}
	return filterByName(results, name), nil
}

// GetClass searches for a class by name, analogous to GetFunction.
func (r *Retriever) GetClass(ctx context.Context, name string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	results, err := r.Search(ctx, Query{
		Text:    fmt.Sprintf("class %s implementation definition", name),
		TopK:    topK,
		Filters: store.Filters{ChunkTypes: []string{"class"}},
	})
	if err != nil {
		return nil, err
	}
	return filterByName(results, name), nil
}

// FindUsage searches for call sites/imports of identifier, retaining only
// results whose content actually contains it.
func (r *Retriever) FindUsage(ctx context.Context, identifier string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 10
	}
	results, err := r.Search(ctx, Query{
		Text: fmt.Sprintf("using %s calling %s import %s", identifier, identifier, identifier),
		TopK: topK,
	})
	if err != nil {
		return nil, err
	}

	out := results[:0]
	for _, res := range results {
		if strings.Contains(res.Chunk.Content, identifier) {
			out = append(out, res)
		}
	}
	return out, nil
}

func filterByName(results []Result, name string) []Result {
	lowerName := strings.ToLower(name)
	out := results[:0]
	for _, res := range results {
		if strings.Contains(strings.ToLower(res.Chunk.Name), lowerName) {
			out = append(out, res)
		}
	}
	return out
}
