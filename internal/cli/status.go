package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localrag/localrag/internal/indexer"
)

var statusCmd = &cobra.Command{
	Use:   "status <project_path>",
	Short: "Print the manifest summary and store statistics for a project (embedder status is not printed)",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	projectPath := args[0]
	idx, err := openIndexer(projectPath, indexer.NoOpProgressReporter{})
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx := context.Background()
	projStats := idx.ProjectStats(ctx)
	storeStats := idx.Store().Stats(ctx)

	fmt.Printf("project_path=%s\n", projStats.ProjectPath)
	fmt.Printf("indexed_at=%s\n", projStats.IndexedAt)
	fmt.Printf("file_count=%d\n", projStats.FileCount)
	fmt.Printf("chunk_count=%d\n", projStats.ChunkCount)
	fmt.Printf("index_size_bytes=%d\n", projStats.IndexSizeBytes)
	fmt.Printf("unique_files=%d\n", storeStats.UniqueFiles)
	for t, n := range storeStats.ChunkTypes {
		fmt.Printf("chunk_type.%s=%d\n", t, n)
	}
	for l, n := range storeStats.Languages {
		fmt.Printf("language.%s=%d\n", l, n)
	}
	return nil
}
