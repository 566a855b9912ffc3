package chunk

import (
	"path/filepath"
	"regexp"
	"strings"
)

var extLanguage = map[string]string{
	".py":    "python",
	".pyw":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".go":    "go",
	".java":  "java",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".php":   "php",
	".rb":    "ruby",
	".md":    "markdown",
	".markdown": "markdown",
	".rst":   "rst",
	".adoc":  "asciidoc",
	".asciidoc": "asciidoc",
	".txt":   "text",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".ini":   "ini",
	".cfg":   "ini",
	".conf":  "ini",
}

var shebangLanguage = []struct {
	pattern  *regexp.Regexp
	language string
}{
	{regexp.MustCompile(`^#!.*\bpython[0-9.]*\b`), "python"},
	{regexp.MustCompile(`^#!.*\bnode\b`), "javascript"},
	{regexp.MustCompile(`^#!.*\b(bash|sh|zsh|ksh)\b`), "text"},
	{regexp.MustCompile(`^#!.*\bruby\b`), "ruby"},
	{regexp.MustCompile(`^#!.*\bperl\b`), "text"},
}

// keywordScore is used as the last-resort language detector: count
// occurrences of a handful of language-specific tokens in the first 50
// lines and pick the highest scorer.
var keywordScore = map[string][]string{
	"python":     {"def ", "import ", "elif ", "self.", "__init__"},
	"javascript": {"function ", "const ", "require(", "=>", "module.exports"},
	"go":         {"package ", "func ", ":= ", "import (", "fmt."},
	"java":       {"public class ", "private ", "System.out", "void ", "import java"},
	"rust":       {"fn ", "let mut ", "impl ", "pub fn", "use std::"},
}

// DetectLanguage resolves a language tag for filePath, preferring the file
// extension, then a shebang on the first line of content, then keyword
// density over the first 50 lines. Returns "unknown" if nothing matches.
func DetectLanguage(filePath string, content string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if lang, ok := extLanguage[ext]; ok {
		return lang
	}

	lines := strings.Split(content, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#!") {
		for _, sb := range shebangLanguage {
			if sb.pattern.MatchString(lines[0]) {
				return sb.language
			}
		}
	}

	limit := len(lines)
	if limit > 50 {
		limit = 50
	}
	sample := strings.Join(lines[:limit], "\n")

	bestLang := "unknown"
	bestScore := 0
	for lang, keywords := range keywordScore {
		score := 0
		for _, kw := range keywords {
			score += strings.Count(sample, kw)
		}
		if score > bestScore {
			bestScore = score
			bestLang = lang
		}
	}
	return bestLang
}

// IsStructuralCodeLanguage reports whether lang gets the regex+brace-balance
// structural strategy (spec.md §4.2: JavaScript/TypeScript, Go, Java) or the
// brace-delimited sibling languages this module additionally applies it to
// (see DESIGN.md's chunker entry for why Rust/C/C++/PHP/Ruby share it rather
// than getting dedicated tree-sitter grammars).
func IsStructuralCodeLanguage(lang string) bool {
	switch lang {
	case "javascript", "typescript", "go", "java", "rust", "c", "cpp", "php", "ruby":
		return true
	default:
		return false
	}
}

func IsProseLanguage(lang string) bool {
	switch lang {
	case "markdown", "rst", "asciidoc", "text":
		return true
	default:
		return false
	}
}

func IsStructuredDataLanguage(lang string) bool {
	switch lang {
	case "json", "yaml", "toml", "ini":
		return true
	default:
		return false
	}
}
