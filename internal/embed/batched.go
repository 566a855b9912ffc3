package embed

import (
	"context"
	"fmt"
)

// BatchProgress reports embedding progress, grounded in the teacher's
// internal/embed/batched.go.
type BatchProgress struct {
	BatchIndex      int
	TotalBatches    int
	ProcessedChunks int
	TotalChunks     int
}

// EmbedWithProgress embeds texts in fixed-size batches, sequentially,
// reporting progress after each batch over progressCh (which may be nil).
func EmbedWithProgress(
	ctx context.Context,
	embedder Embedder,
	texts []string,
	mode Mode,
	batchSize int,
	progressCh chan<- BatchProgress,
) ([][]float32, error) {
	total := len(texts)
	if total == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = total
	}

	numBatches := (total + batchSize - 1) / batchSize
	results := make([][]float32, total)
	processed := 0

	for batchIdx := 0; batchIdx < numBatches; batchIdx++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := batchIdx * batchSize
		end := start + batchSize
		if end > total {
			end = total
		}

		vectors, err := embedder.EmbedBatch(ctx, texts[start:end], mode)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d failed: %w", batchIdx+1, numBatches, err)
		}
		copy(results[start:end], vectors)

		processed += end - start
		if progressCh != nil {
			progressCh <- BatchProgress{
				BatchIndex:      batchIdx + 1,
				TotalBatches:    numBatches,
				ProcessedChunks: processed,
				TotalChunks:     total,
			}
		}
	}

	return results, nil
}
