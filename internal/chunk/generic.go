package chunk

import "strings"

// chunkGeneric is the fallback strategy for any language that isn't
// recognized as structural code, prose, or structured data: split on blank
// lines, accumulate lines into a window bounded by [MinChunkSize,
// MaxChunkSize] (measured in lines, matching the code convention), and flush
// at the first blank line once the window holds MinChunkSize lines, or as
// soon as it reaches MaxChunkSize lines.
func chunkGeneric(content string, lang string, opts Options) []Chunk {
	lines := strings.Split(content, "\n")

	var chunks []Chunk
	var cur []string
	start := 1

	flush := func(end int) {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Content:   strings.Join(cur, "\n"),
			StartLine: start,
			EndLine:   end,
			ChunkType: TypeCodeBlock,
			Language:  lang,
		})
		cur = nil
	}

	for i, line := range lines {
		lineNo := i + 1
		if len(cur) == 0 {
			start = lineNo
		}
		cur = append(cur, line)

		atBlank := strings.TrimSpace(line) == ""
		overMax := len(cur) >= opts.MaxChunkSize
		if (atBlank && len(cur) >= opts.MinChunkSize) || overMax {
			flush(lineNo)
		}
	}
	flush(len(lines))

	return chunks
}
