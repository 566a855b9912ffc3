package chunk

import (
	"regexp"
	"strconv"
	"strings"
)

// atxHeading matches ATX-style Markdown headings of any level and captures
// the heading text for use as the chunk's Name.
var atxHeading = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// horizontalRule matches a Markdown/RST/AsciiDoc horizontal rule line.
var horizontalRule = regexp.MustCompile(`^(\*\s*\*\s*\*[\s*]*|-{3,}|_{3,}|={3,})\s*$`)

type proseSection struct {
	startLine int
	heading   string
	lines     []string
}

// chunkProse implements the Markdown/text/RST/AsciiDoc section-based
// strategy from spec.md §4.2: ATX headings and horizontal rules are section
// boundaries, runs of two-or-more blank lines are soft boundaries, and
// consecutive chunks share a 3-line overlap copied from the tail of the
// previous chunk.
func chunkProse(content string, lang string, opts Options) []Chunk {
	lines := strings.Split(content, "\n")
	sections := splitProseSections(lines)

	var chunks []Chunk
	var prevTail []string

	for _, sec := range sections {
		text := strings.Join(sec.lines, "\n")
		name := sec.heading
		if name == "" {
			name = ""
		}

		var body string
		if len(prevTail) > 0 {
			body = strings.Join(prevTail, "\n") + "\n" + text
		} else {
			body = text
		}

		if len(body) <= opts.MaxChunkSize {
			chunks = append(chunks, Chunk{
				Content:   body,
				StartLine: sec.startLine,
				EndLine:   sec.startLine + len(sec.lines) - 1,
				ChunkType: TypeSection,
				Name:      name,
				Language:  lang,
			})
		} else {
			chunks = append(chunks, splitOversizedProse(sec, prevTail, lang, opts)...)
		}

		prevTail = tailLines(sec.lines, opts.OverlapLinesProse)
	}

	if len(chunks) == 0 && strings.TrimSpace(content) != "" {
		chunks = append(chunks, Chunk{
			Content:   content,
			StartLine: 1,
			EndLine:   len(lines),
			ChunkType: TypeSection,
			Language:  lang,
		})
	}

	return chunks
}

// splitProseSections splits lines into sections at ATX headings, horizontal
// rules, and runs of >=2 blank lines.
func splitProseSections(lines []string) []proseSection {
	var sections []proseSection
	cur := proseSection{startLine: 1}
	blankRun := 0

	flush := func() {
		if len(cur.lines) > 0 {
			sections = append(sections, cur)
		}
	}

	for i, line := range lines {
		lineNo := i + 1
		if m := atxHeading.FindStringSubmatch(line); m != nil {
			flush()
			cur = proseSection{startLine: lineNo, heading: m[2], lines: []string{line}}
			blankRun = 0
			continue
		}
		if horizontalRule.MatchString(line) {
			flush()
			cur = proseSection{startLine: lineNo + 1}
			blankRun = 0
			continue
		}
		if strings.TrimSpace(line) == "" {
			blankRun++
			cur.lines = append(cur.lines, line)
			if blankRun >= 2 {
				flush()
				cur = proseSection{startLine: lineNo + 1}
			}
			continue
		}
		blankRun = 0
		cur.lines = append(cur.lines, line)
	}
	flush()
	return sections
}

// splitOversizedProse subdivides a prose section whose character length
// exceeds MaxChunkSize into paragraph-bounded windows, each carrying the
// 3-line overlap from whatever preceded it.
func splitOversizedProse(sec proseSection, firstOverlap []string, lang string, opts Options) []Chunk {
	paragraphs := splitParagraphs(sec.lines, sec.startLine)

	var chunks []Chunk
	var curLines []string
	curStart := sec.startLine
	curLen := 0
	overlap := firstOverlap
	partIdx := 0

	flush := func(endLine int) {
		if len(curLines) == 0 {
			return
		}
		body := curLines
		if len(overlap) > 0 {
			body = append(append([]string{}, overlap...), curLines...)
		}
		name := sec.heading
		if partIdx > 0 || name != "" {
			if name == "" {
				name = "block"
			}
			name = name + "_part" + strconv.Itoa(partIdx+1)
		}
		chunks = append(chunks, Chunk{
			Content:   strings.Join(body, "\n"),
			StartLine: curStart,
			EndLine:   endLine,
			ChunkType: TypeSection,
			Name:      name,
			Language:  lang,
		})
		overlap = tailLines(curLines, opts.OverlapLinesProse)
		partIdx++
		curLines = nil
		curLen = 0
	}

	for _, p := range paragraphs {
		pLen := len(p.text)
		if curLen > 0 && curLen+pLen > opts.MaxChunkSize {
			flush(p.startLine - 1)
			curStart = p.startLine
		}
		if len(curLines) == 0 {
			curStart = p.startLine
		}
		curLines = append(curLines, strings.Split(p.text, "\n")...)
		curLen += pLen
	}
	if len(curLines) > 0 {
		flush(sec.startLine + len(sec.lines) - 1)
	}

	return chunks
}

type paragraph struct {
	text      string
	startLine int
}

func splitParagraphs(lines []string, startLine int) []paragraph {
	var paragraphs []paragraph
	var cur []string
	curStart := startLine
	inCode := false
	fence := regexp.MustCompile("^```")

	flush := func() {
		if len(cur) > 0 {
			text := strings.TrimSpace(strings.Join(cur, "\n"))
			if text != "" {
				paragraphs = append(paragraphs, paragraph{text: text, startLine: curStart})
			}
			cur = nil
		}
	}

	for i, line := range lines {
		lineNo := startLine + i
		if fence.MatchString(line) {
			if !inCode {
				flush()
				curStart = lineNo
				inCode = true
				cur = append(cur, line)
			} else {
				cur = append(cur, line)
				inCode = false
				flush()
			}
			continue
		}
		if inCode {
			cur = append(cur, line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			curStart = lineNo + 1
			continue
		}
		if len(cur) == 0 {
			curStart = lineNo
		}
		cur = append(cur, line)
	}
	flush()
	return paragraphs
}

func tailLines(lines []string, n int) []string {
	nonEmpty := make([]string, 0, len(lines))
	for _, l := range lines {
		nonEmpty = append(nonEmpty, l)
	}
	if len(nonEmpty) <= n {
		return append([]string{}, nonEmpty...)
	}
	return append([]string{}, nonEmpty[len(nonEmpty)-n:]...)
}

