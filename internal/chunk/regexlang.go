package chunk

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
)

// structuralSignature is one per-language family of regexes used to spot
// the start of a function/method/class declaration. Only the opening line
// is regex-matched; the body is then bounded by brace balance.
type structuralSignature struct {
	class    *regexp.Regexp
	function *regexp.Regexp
	method   *regexp.Regexp
	async    *regexp.Regexp
}

var signatures = map[string]structuralSignature{
	"javascript": {
		class:    regexp.MustCompile(`^\s*(export\s+)?(default\s+)?class\s+(\w+)`),
		function: regexp.MustCompile(`^\s*(export\s+)?(default\s+)?function\s*\*?\s+(\w+)\s*\(`),
		method:   regexp.MustCompile(`^\s*(static\s+|async\s+|get\s+|set\s+)*(\w+)\s*\([^)]*\)\s*\{`),
		async:    regexp.MustCompile(`^\s*(export\s+)?(default\s+)?async\s+function\s*\*?\s+(\w+)\s*\(`),
	},
	"typescript": {
		class:    regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(abstract\s+)?class\s+(\w+)`),
		function: regexp.MustCompile(`^\s*(export\s+)?(default\s+)?function\s*\*?\s+(\w+)\s*[<(]`),
		method:   regexp.MustCompile(`^\s*(public\s+|private\s+|protected\s+|static\s+|async\s+)*(\w+)\s*[<(][^{]*\{`),
		async:    regexp.MustCompile(`^\s*(export\s+)?(default\s+)?async\s+function\s*\*?\s+(\w+)\s*[<(]`),
	},
	"java": {
		class:    regexp.MustCompile(`^\s*(public\s+|private\s+|protected\s+)?(abstract\s+|final\s+)?class\s+(\w+)`),
		function: regexp.MustCompile(`^\s*(public\s+|private\s+|protected\s+|static\s+|final\s+|abstract\s+)*[\w<>\[\],\s]+\s(\w+)\s*\([^;]*\)\s*(\{|throws)`),
	},
	"rust": {
		function: regexp.MustCompile(`^\s*(pub\s+)?(async\s+)?fn\s+(\w+)`),
		class:    regexp.MustCompile(`^\s*(pub\s+)?(struct|enum|trait|impl)\s+(\w+)`),
	},
	"c": {
		function: regexp.MustCompile(`^[\w\*]+[\w\s\*]*\s(\w+)\s*\([^;]*\)\s*\{`),
	},
	"cpp": {
		class:    regexp.MustCompile(`^\s*class\s+(\w+)`),
		function: regexp.MustCompile(`^[\w:<>\*&~]+[\w\s:<>\*&~]*\s(\w+)\s*\([^;]*\)\s*\{`),
	},
	"php": {
		class:    regexp.MustCompile(`^\s*(abstract\s+|final\s+)?class\s+(\w+)`),
		function: regexp.MustCompile(`^\s*(public\s+|private\s+|protected\s+|static\s+)*function\s+(\w+)\s*\(`),
	},
	"ruby": {
		class:    regexp.MustCompile(`^\s*class\s+(\w+)`),
		function: regexp.MustCompile(`^\s*def\s+(self\.)?(\w+)`),
	},
	"go": {
		function: regexp.MustCompile(`^func\s+(\([^)]*\)\s*)?(\w+)\s*[\[(]`),
	},
}

// chunkStructuralCode implements spec.md §4.2's regex+brace-balance
// strategy. Go gets a fast path through go/ast (see chunkGo) since the
// standard library already gives us a real parser, and falls back to this
// walk when that parse fails; the other brace-delimited languages always
// use this generic signature-match-then-balance walk.
func chunkStructuralCode(content string, lang string, opts Options) []Chunk {
	if lang == "go" {
		if chunks, ok := chunkGo(content, opts); ok {
			return chunks
		}
	}

	sig, ok := signatures[lang]
	if !ok {
		return chunkGeneric(content, lang, opts)
	}

	lines := strings.Split(content, "\n")
	var chunks []Chunk
	var currentClass string
	classEndLine := -1

	i := 0
	for i < len(lines) {
		line := lines[i]

		if classEndLine != -1 && i > classEndLine {
			currentClass = ""
			classEndLine = -1
		}

		switch {
		case sig.class != nil && sig.class.MatchString(line):
			name := lastMatch(sig.class, line)
			end := findBraceEnd(lines, i)
			currentClass = name
			classEndLine = end
			chunks = append(chunks, Chunk{
				Content:   strings.Join(lines[i:end+1], "\n"),
				StartLine: i + 1,
				EndLine:   end + 1,
				ChunkType: TypeClass,
				Name:      name,
				Language:  lang,
			})
			i = end + 1
			continue

		case sig.async != nil && sig.async.MatchString(line):
			name := lastMatch(sig.async, line)
			end := findBraceEnd(lines, i)
			ct := TypeAsyncFunction
			if currentClass != "" {
				ct = TypeMethod
			}
			chunks = append(chunks, structChunk(lines, i, end, ct, name, lang, currentClass))
			i = end + 1
			continue

		case sig.function != nil && sig.function.MatchString(line):
			name := lastMatch(sig.function, line)
			end := findBraceEnd(lines, i)
			ct := TypeFunction
			chunks = append(chunks, structChunk(lines, i, end, ct, name, lang, ""))
			i = end + 1
			continue

		case currentClass != "" && sig.method != nil && sig.method.MatchString(line):
			name := lastMatch(sig.method, line)
			end := findBraceEnd(lines, i)
			chunks = append(chunks, structChunk(lines, i, end, TypeMethod, name, lang, currentClass))
			i = end + 1
			continue
		}
		i++
	}

	if len(chunks) == 0 {
		return chunkGeneric(content, lang, opts)
	}
	return chunks
}

func structChunk(lines []string, start, end int, ct Type, name, lang, parentClass string) Chunk {
	c := Chunk{
		Content:   strings.Join(lines[start:end+1], "\n"),
		StartLine: start + 1,
		EndLine:   end + 1,
		ChunkType: ct,
		Name:      name,
		Language:  lang,
	}
	if parentClass != "" {
		c.ParentClass = parentClass
	}
	return c
}

// findBraceEnd returns the 0-indexed line on which the brace opened on or
// after startLine balances back to zero. If no opening brace appears within
// a few lines, it falls back to scanning until the next blank line.
func findBraceEnd(lines []string, startLine int) int {
	depth := 0
	seenOpen := false
	for i := startLine; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
			}
		}
		if seenOpen && depth <= 0 {
			return i
		}
		if !seenOpen && i-startLine > 5 && strings.TrimSpace(lines[i]) == "" {
			return i - 1
		}
	}
	return len(lines) - 1
}

// lastMatch returns the last non-empty capture group, which by convention
// in the signatures above is the identifier name.
func lastMatch(re *regexp.Regexp, line string) string {
	groups := re.FindStringSubmatch(line)
	for i := len(groups) - 1; i >= 1; i-- {
		if groups[i] != "" {
			return groups[i]
		}
	}
	return ""
}

// chunkGo uses go/parser for structural extraction instead of the regex
// strategy, since Go ships a real parser and there is no reason to
// approximate brace balance by hand for it.
func chunkGo(content string, opts Options) ([]Chunk, bool) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", content, parser.ParseComments)
	if err != nil {
		return nil, false
	}
	lines := strings.Split(content, "\n")

	var chunks []Chunk
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		start := fset.Position(fn.Pos()).Line
		end := fset.Position(fn.End()).Line
		if start < 1 || end > len(lines) {
			continue
		}
		ct := TypeFunction
		var parentClass string
		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			ct = TypeMethod
			parentClass = recvTypeName(fn.Recv.List[0].Type)
		}
		chunks = append(chunks, Chunk{
			Content:     strings.Join(lines[start-1:end], "\n"),
			StartLine:   start,
			EndLine:     end,
			ChunkType:   ct,
			Name:        fn.Name.Name,
			Language:    "go",
			ParentClass: parentClass,
		})
	}
	if len(chunks) == 0 {
		return nil, false
	}
	return chunks, true
}

func recvTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}
