package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File splits one file's content into linked, size-constrained chunks.
// filePath is used for both language detection and chunk_id derivation;
// absPath is stamped onto every chunk's AbsolutePath.
func File(filePath, absPath, content string, opts Options) []Chunk {
	opts = opts.withDefaults()
	lang := DetectLanguage(filePath, content)

	var chunks []Chunk
	switch {
	case lang == "python":
		chunks = chunkPython(content, opts)
	case IsStructuralCodeLanguage(lang):
		chunks = chunkStructuralCode(content, lang, opts)
	case IsProseLanguage(lang):
		chunks = chunkProse(content, lang, opts)
	case IsStructuredDataLanguage(lang):
		chunks = chunkStructured(content, lang, opts)
	default:
		chunks = chunkGeneric(content, lang, opts)
	}

	// §4.2: if structural parsing produced very few chunks from a
	// sizeable file, the gaps between them are worth covering with
	// generic chunks rather than leaving large unindexed spans.
	if (lang == "python" || IsStructuralCodeLanguage(lang)) && needsGapFill(chunks, content) {
		chunks = fillStructuralGaps(chunks, content, lang, opts)
	}

	chunks = enforceSizeConstraints(chunks, opts)
	wireLinks(chunks, filePath, absPath, content)

	return chunks
}

func needsGapFill(chunks []Chunk, content string) bool {
	lineCount := strings.Count(content, "\n") + 1
	return len(chunks) < 3 && lineCount > 200
}

// fillStructuralGaps inserts generic chunks over line ranges not already
// covered by a structural chunk, merging results by non-overlapping range
// and keeping everything in file order.
func fillStructuralGaps(chunks []Chunk, content, lang string, opts Options) []Chunk {
	lines := strings.Split(content, "\n")
	covered := make([]bool, len(lines)+1)
	for _, c := range chunks {
		for l := c.StartLine; l <= c.EndLine && l < len(covered); l++ {
			covered[l] = true
		}
	}

	var gapChunks []Chunk
	start := -1
	for l := 1; l <= len(lines); l++ {
		if !covered[l] {
			if start == -1 {
				start = l
			}
		} else if start != -1 {
			gc := chunkGeneric(strings.Join(lines[start-1:l-1], "\n"), lang, opts)
			offsetLines(gc, start-1)
			gapChunks = append(gapChunks, gc...)
			start = -1
		}
	}
	if start != -1 {
		gc := chunkGeneric(strings.Join(lines[start-1:], "\n"), lang, opts)
		offsetLines(gc, start-1)
		gapChunks = append(gapChunks, gc...)
	}

	all := append(append([]Chunk{}, chunks...), gapChunks...)
	sortChunksByStart(all)
	return all
}

func offsetChunks(chunks []Chunk, offset int) {
	n := len(chunks)
	for i := n - 1; i >= 0 && chunks[i].StartLine <= offset; i-- {
		chunks[i].StartLine += offset
		chunks[i].EndLine += offset
	}
}

func offsetLines(chunks []Chunk, offset int) {
	for i := range chunks {
		chunks[i].StartLine += offset
		chunks[i].EndLine += offset
	}
}

func sortChunksByStart(chunks []Chunk) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j-1].StartLine > chunks[j].StartLine; j-- {
			chunks[j-1], chunks[j] = chunks[j], chunks[j-1]
		}
	}
}

// enforceSizeConstraints applies §4.2's subdivide/merge pass: oversized
// chunks are split into overlapping windows named "<name>_partN"; undersized
// chunks are folded into the previous chunk when the combined size still
// fits under MaxChunkSize. Function, async function, method and class
// chunks are never folded, however small.
func enforceSizeConstraints(chunks []Chunk, opts Options) []Chunk {
	var subdivided []Chunk
	for _, c := range chunks {
		subdivided = append(subdivided, subdivideIfOversized(c, opts)...)
	}
	return mergeUndersized(subdivided, opts)
}

func chunkSize(c Chunk, opts Options) int {
	if isProseType(c.ChunkType) {
		return len(c.Content)
	}
	return strings.Count(c.Content, "\n") + 1
}

func subdivideIfOversized(c Chunk, opts Options) []Chunk {
	size := chunkSize(c, opts)
	if size <= opts.MaxChunkSize {
		return []Chunk{c}
	}

	lines := strings.Split(c.Content, "\n")
	overlap := opts.OverlapLinesCode
	if isProseType(c.ChunkType) {
		overlap = opts.OverlapLinesProse
	}
	windowLines := opts.MaxChunkSize
	if isProseType(c.ChunkType) {
		windowLines = approxLinesForChars(lines, opts.MaxChunkSize)
	}
	if windowLines < 1 {
		windowLines = 1
	}

	var parts []Chunk
	partIdx := 0
	i := 0
	for i < len(lines) {
		end := i + windowLines
		if end > len(lines) {
			end = len(lines)
		}
		windowStart := i
		if partIdx > 0 && overlap > 0 && i-overlap >= 0 {
			windowStart = i - overlap
		}
		name := c.Name
		if name == "" {
			name = "block"
		}
		name = name + "_part" + strconv.Itoa(partIdx+1)

		part := c
		part.Content = strings.Join(lines[windowStart:end], "\n")
		part.StartLine = c.StartLine + windowStart
		part.EndLine = c.StartLine + end - 1
		part.Name = name
		parts = append(parts, part)

		if end >= len(lines) {
			break
		}
		i = end
		partIdx++
	}
	return parts
}

// approxLinesForChars estimates how many lines of this prose chunk fit
// within a character budget, for windowing purposes.
func approxLinesForChars(lines []string, maxChars int) int {
	total := 0
	for i, l := range lines {
		total += len(l) + 1
		if total > maxChars {
			if i == 0 {
				return 1
			}
			return i
		}
	}
	return len(lines)
}

func mergeUndersized(chunks []Chunk, opts Options) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		switch c.ChunkType {
		case TypeFunction, TypeAsyncFunction, TypeMethod, TypeClass:
			out = append(out, c)
			continue
		}
		size := chunkSize(c, opts)
		if len(out) > 0 && size < opts.MinChunkSize {
			prevIdx := len(out) - 1
			prevSize := chunkSize(out[prevIdx], opts)
			if prevSize+size <= opts.MaxChunkSize {
				out[prevIdx].Content = out[prevIdx].Content + "\n" + c.Content
				out[prevIdx].EndLine = c.EndLine
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// wireLinks implements the post-pass from §4.2/§4.3: chunk_index,
// total_chunks, prev/next links, file_lines, chunk_id, and indexed_at are
// all assigned here, after the chunk list is final.
func wireLinks(chunks []Chunk, filePath, absPath, content string) {
	if len(chunks) == 0 {
		return
	}
	fileLines := strings.Count(content, "\n") + 1
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	now := time.Now().UTC().Format(time.RFC3339)

	for i := range chunks {
		c := &chunks[i]
		c.FilePath = filePath
		c.AbsolutePath = absPath
		c.ChunkIndex = i
		c.TotalChunks = len(chunks)
		c.FileLines = fileLines
		c.IndexedAt = now
		c.ChunkID = chunkID(stem, filePath, i)

		if i > 0 {
			c.PrevChunkID = chunks[i-1].ChunkID
		}
	}
	for i := 0; i < len(chunks)-1; i++ {
		chunks[i].NextChunkID = chunks[i+1].ChunkID
	}
}

// chunkID derives a stable identifier from the file stem, the file's full
// relative path (to disambiguate same-named stems in different
// directories), and the chunk's position.
func chunkID(stem, filePath string, index int) string {
	h := sha256.Sum256([]byte(filePath))
	short := hex.EncodeToString(h[:])[:8]
	return stem + "_" + short + "_" + strconv.Itoa(index)
}
