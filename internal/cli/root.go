// Package cli implements localrag's command-line surface: index, search,
// update, status, and the function/class sugar commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "localrag",
	Short: "localrag - local semantic search and RAG indexing for codebases",
	Long: `localrag indexes a project's source code and documentation into local
vector + BM25 search, with no external services required.`,
}

// Execute runs the root command and exits the process with a non-zero
// status on failure, per spec.md §6.2's exit code contract.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
