package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localrag/localrag/internal/config"
	"github.com/localrag/localrag/internal/embed"
	"github.com/localrag/localrag/internal/indexer"
	"github.com/localrag/localrag/internal/retriever"
)

// Sugar entry points restored from original_source/mini_rag/cli.py's
// find_function/find_class/find_usage — not part of spec.md's CLI minimum,
// but thin wrappers over already-specified Retriever methods.

var sugarTopK int

var functionCmd = &cobra.Command{
	Use:   "function <project_path> <name>",
	Short: "Find a function or method by name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSugar(args[0], args[1], func(ctx context.Context, r *retriever.Retriever, name string) ([]retriever.Result, error) {
			return r.GetFunction(ctx, name, sugarTopK)
		})
	},
}

var classCmd = &cobra.Command{
	Use:   "class <project_path> <name>",
	Short: "Find a class by name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSugar(args[0], args[1], func(ctx context.Context, r *retriever.Retriever, name string) ([]retriever.Result, error) {
			return r.GetClass(ctx, name, sugarTopK)
		})
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage <project_path> <identifier>",
	Short: "Find usages of an identifier (calls, imports)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSugar(args[0], args[1], func(ctx context.Context, r *retriever.Retriever, name string) ([]retriever.Result, error) {
			return r.FindUsage(ctx, name, sugarTopK)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{functionCmd, classCmd, usageCmd} {
		c.Flags().IntVarP(&sugarTopK, "top-k", "k", 5, "number of results")
		rootCmd.AddCommand(c)
	}
}

func runSugar(projectPath, name string, search func(context.Context, *retriever.Retriever, string) ([]retriever.Result, error)) error {
	ctx := context.Background()

	cfg, err := config.LoadConfigFromDir(projectPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	embedder, err := embed.New(cfg.ToEmbedConfig())
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}
	defer embedder.Close()

	idx, err := indexer.New(cfg.ToIndexerConfig(projectPath, embedder))
	if err != nil {
		return fmt.Errorf("open indexer: %w", err)
	}
	defer idx.Close()

	r, err := retriever.Open(ctx, idx.Store(), embedder, idx.FileMtimes())
	if err != nil {
		return fmt.Errorf("open retriever: %w", err)
	}
	defer r.Close()

	results, err := search(ctx, r, name)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printResults(results)
	return nil
}
