package retriever

import (
	"crypto/sha256"
	"strings"
)

// applyDiversity walks results in descending score order and accepts a
// candidate unless it violates the per-file cap, content dedup, or
// chunk_type cap rules from spec.md §4.6 step 6. Stops once topK are
// accepted.
func applyDiversity(results []Result, topK int) []Result {
	accepted := make([]Result, 0, topK)
	fileCounts := map[string]int{}
	chunkTypeCounts := map[string]int{}
	seenHashes := map[[32]byte]bool{}

	for _, res := range results {
		if len(accepted) >= topK {
			break
		}

		if fileCounts[res.Chunk.FilePath] >= 2 {
			continue
		}

		h := leadingContentHash(res.Chunk.Content)
		if seenHashes[h] {
			continue
		}

		if len(accepted) >= topK/2 && chunkTypeCounts[string(res.Chunk.ChunkType)] > topK/3 {
			continue
		}

		accepted = append(accepted, res)
		fileCounts[res.Chunk.FilePath]++
		chunkTypeCounts[string(res.Chunk.ChunkType)]++
		seenHashes[h] = true
	}

	return accepted
}

func leadingContentHash(content string) [32]byte {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return sha256.Sum256([]byte(trimmed))
}
