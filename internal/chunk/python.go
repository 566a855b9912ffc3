package chunk

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pythonLanguage = sitter.NewLanguage(python.Language())

// chunkPython extracts module-level functions, classes, and methods with a
// tree-sitter AST walk instead of the regex+brace strategy used for the
// other structural languages (§4.2: Python is the one language the spec
// calls out for real structural parsing).
func chunkPython(content string, opts Options) []Chunk {
	source := []byte(content)
	lines := strings.Split(content, "\n")

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(pythonLanguage)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return chunkGeneric(content, "python", opts)
	}
	defer tree.Close()

	root := tree.RootNode()

	var chunks []Chunk
	walkPythonTree(root, source, lines, "", &chunks)

	if len(chunks) == 0 {
		return chunkGeneric(content, "python", opts)
	}
	return chunks
}

// walkPythonTree recurses through module/class bodies. parentClass is set
// while walking a class_definition's body so methods get ParentClass
// stamped. Function bodies are not walked, so nested defs produce no chunks
// of their own.
func walkPythonTree(node *sitter.Node, source []byte, lines []string, parentClass string, chunks *[]Chunk) {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(uint(i))
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "class_definition":
			emitClassOrFunction(child, int(child.StartPosition().Row)+1, source, lines, parentClass, chunks)

		case "function_definition", "async_function_definition":
			emitClassOrFunction(child, int(child.StartPosition().Row)+1, source, lines, parentClass, chunks)

		case "decorated_definition":
			// tree-sitter wraps a decorated def/class in its own node, with
			// the decorators as preceding siblings of the real definition.
			// spec.md §4.2 wants the chunk's line range to include the
			// decorators, so the decorated_definition's own start line
			// (not the inner definition's) is what gets used.
			decoratedStart := int(child.StartPosition().Row) + 1
			if def := innerDefinition(child); def != nil {
				emitClassOrFunction(def, decoratedStart, source, lines, parentClass, chunks)
			}

		default:
			walkPythonTree(child, source, lines, parentClass, chunks)
		}
	}
}

// emitClassOrFunction appends a chunk for a class_definition or
// (async_)function_definition node. startLine overrides the node's own
// start so a decorated_definition's decorators can be folded into the
// chunk's range.
func emitClassOrFunction(node *sitter.Node, startLine int, source []byte, lines []string, parentClass string, chunks *[]Chunk) {
	name := fieldText(node, "name", source)
	end := int(node.EndPosition().Row) + 1

	if node.Kind() == "class_definition" {
		*chunks = append(*chunks, Chunk{
			Content:   joinLines(lines, startLine, end),
			StartLine: startLine,
			EndLine:   end,
			ChunkType: TypeClass,
			Name:      name,
			Language:  "python",
		})
		if body := node.ChildByFieldName("body"); body != nil {
			walkPythonTree(body, source, lines, name, chunks)
		}
		return
	}

	ct := TypeFunction
	if parentClass != "" {
		ct = TypeMethod
	} else if node.Kind() == "async_function_definition" || isAsyncDef(node, source) {
		ct = TypeAsyncFunction
	}
	c := Chunk{
		Content:   joinLines(lines, startLine, end),
		StartLine: startLine,
		EndLine:   end,
		ChunkType: ct,
		Name:      name,
		Language:  "python",
	}
	if parentClass != "" {
		c.ParentClass = parentClass
	}
	*chunks = append(*chunks, c)
	// Don't recurse into function bodies: nested defs/classes are rare in
	// Python and not worth a separate chunk type.
}

// innerDefinition returns the class_definition/function_definition/
// async_function_definition child of a decorated_definition node (its
// decorators are the other children).
func innerDefinition(decorated *sitter.Node) *sitter.Node {
	count := int(decorated.ChildCount())
	for i := 0; i < count; i++ {
		child := decorated.Child(uint(i))
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "class_definition", "function_definition", "async_function_definition":
			return child
		}
	}
	return nil
}

func isAsyncDef(node *sitter.Node, source []byte) bool {
	text := nodeText(node, source)
	return strings.HasPrefix(strings.TrimSpace(text), "async ")
}

func fieldText(node *sitter.Node, field string, source []byte) string {
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return nodeText(n, source)
}

func nodeText(node *sitter.Node, source []byte) string {
	start := node.StartByte()
	end := node.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
