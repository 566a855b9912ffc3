package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/localrag/localrag/internal/config"
	"github.com/localrag/localrag/internal/embed"
	"github.com/localrag/localrag/internal/indexer"
	"github.com/localrag/localrag/internal/retriever"
	"github.com/localrag/localrag/internal/store"
)

var (
	topKFlag       int
	typeFilterFlag []string
	langFilterFlag []string
	showContent    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <project_path> <query>",
	Short: "Run a hybrid semantic + lexical search against an indexed project",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&topKFlag, "top-k", "k", 0, "number of results (defaults to search.default_top_k)")
	searchCmd.Flags().StringSliceVarP(&typeFilterFlag, "type", "t", nil, "restrict to chunk types")
	searchCmd.Flags().StringSliceVar(&langFilterFlag, "lang", nil, "restrict to languages")
	searchCmd.Flags().BoolVarP(&showContent, "show-content", "c", false, "print full chunk content")
}

func runSearch(cmd *cobra.Command, args []string) error {
	projectPath, query := args[0], args[1]
	ctx := context.Background()

	cfg, err := config.LoadConfigFromDir(projectPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	topK := topKFlag
	if topK <= 0 {
		topK = cfg.Search.DefaultTopK
	}

	embedder, err := embed.New(cfg.ToEmbedConfig())
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}
	defer embedder.Close()

	idxCfg := cfg.ToIndexerConfig(projectPath, embedder)
	idx, err := indexer.New(idxCfg)
	if err != nil {
		return fmt.Errorf("open indexer: %w", err)
	}
	defer idx.Close()

	r, err := retriever.Open(ctx, idx.Store(), embedder, idx.FileMtimes())
	if err != nil {
		return fmt.Errorf("open retriever: %w", err)
	}
	defer r.Close()

	weights := retriever.DefaultWeights()
	if !cfg.Search.EnableBM25 {
		weights = retriever.Weights{Semantic: 1, BM25: 0}
	}

	results, err := r.Search(ctx, retriever.Query{
		Text:    query,
		TopK:    topK,
		Weights: weights,
		Filters: store.Filters{ChunkTypes: typeFilterFlag, Languages: langFilterFlag},
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(results)
	saveLastSearch(projectPath, query)
	return nil
}

// saveLastSearch writes the query string to .localrag/last_search, per
// spec.md §6.1. Diagnostic and best-effort: a failure here never fails the
// search itself.
func saveLastSearch(projectPath, query string) {
	path := filepath.Join(projectPath, ".localrag", "last_search")
	_ = os.WriteFile(path, []byte(query), 0o644)
}

func printResults(results []retriever.Result) {
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, res := range results {
		fmt.Printf("%d. %s:%d-%d  %s (%s)  score=%.4f\n",
			i+1, res.Chunk.FilePath, res.Chunk.StartLine, res.Chunk.EndLine,
			res.Chunk.Name, res.Chunk.ChunkType, res.Score)
		if showContent {
			fmt.Println(res.Chunk.Content)
			fmt.Println()
		}
	}
}
