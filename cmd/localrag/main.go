// Command localrag indexes and searches a codebase with local semantic
// search and BM25, no external services required.
package main

import (
	"github.com/localrag/localrag/internal/cli"
)

func main() {
	cli.Execute()
}
