package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/localrag/localrag/internal/indexer"
)

var (
	forceFlag bool
	quietFlag bool
)

var indexCmd = &cobra.Command{
	Use:   "index <project_path>",
	Short: "Index a project for semantic search",
	Long: `Index walks a project, chunks its code and documentation, generates
embeddings, and stores them for search. Progress is printed to stderr;
final stats are printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "discard the existing index and reindex everything")
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress progress output")
}

func runIndex(cmd *cobra.Command, args []string) error {
	return indexProject(args[0], forceFlag)
}

func indexProject(projectPath string, force bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "interrupted, cancelling...")
		cancel()
	}()

	progress := NewCLIProgressReporter(quietFlag)
	idx, err := openIndexer(projectPath, progress)
	if err != nil {
		return err
	}
	defer idx.Close()

	stats, err := idx.IndexProject(ctx, force)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	printIndexStats(stats)
	return nil
}

func printIndexStats(stats indexer.Stats) {
	fmt.Printf("files_indexed=%d files_failed=%d chunks_created=%d time_taken=%s files_per_second=%.2f\n",
		stats.FilesIndexed, stats.FilesFailed, stats.ChunksCreated, stats.TimeTaken, stats.FilesPerSecond)
}
