package chunk

import (
	"regexp"
	"strings"
)

// yamlTomlSection matches a YAML top-level key (`key:` at column 0) or a
// TOML/INI section header (`[section]`).
var yamlTomlSection = regexp.MustCompile(`^(\[[^\]]+\]|[A-Za-z0-9_.\-]+:)`)

// chunkStructured implements spec.md §4.2's structured-data strategy: JSON
// is indexed as a single config chunk (splitting a JSON file structurally
// without a real parser risks producing invalid fragments), while
// YAML/TOML/INI are split at top-level key or section boundaries.
func chunkStructured(content string, lang string, opts Options) []Chunk {
	lines := strings.Split(content, "\n")

	if lang == "json" {
		return []Chunk{{
			Content:   content,
			StartLine: 1,
			EndLine:   len(lines),
			ChunkType: TypeConfig,
			Language:  lang,
		}}
	}

	var chunks []Chunk
	var cur []string
	var name string
	start := 1

	flush := func(end int) {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Content:   strings.Join(cur, "\n"),
			StartLine: start,
			EndLine:   end,
			ChunkType: TypeConfigSection,
			Name:      name,
			Language:  lang,
		})
		cur = nil
	}

	for i, line := range lines {
		lineNo := i + 1
		if m := yamlTomlSection.FindString(line); m != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			flush(lineNo - 1)
			start = lineNo
			name = strings.TrimSuffix(strings.Trim(m, "[]"), ":")
		}
		cur = append(cur, line)
	}
	flush(len(lines))

	if len(chunks) == 0 && strings.TrimSpace(content) != "" {
		chunks = append(chunks, Chunk{
			Content:   content,
			StartLine: 1,
			EndLine:   len(lines),
			ChunkType: TypeConfig,
			Language:  lang,
		})
	}

	return joinUndersizedSections(chunks, opts)
}

// joinUndersizedSections merges a config_section chunk into the previous one
// when its content length falls below MinChunkSize, without the
// MaxChunkSize check of the top-level dispatcher's merge pass. File still
// runs that pass over the result afterwards.
func joinUndersizedSections(chunks []Chunk, opts Options) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	var out []Chunk
	for _, c := range chunks {
		if len(out) > 0 && len(c.Content) < opts.MinChunkSize {
			prev := &out[len(out)-1]
			prev.Content = prev.Content + "\n" + c.Content
			prev.EndLine = c.EndLine
			continue
		}
		out = append(out, c)
	}
	return out
}
