package cli

import (
	"fmt"
	"log"

	"github.com/localrag/localrag/internal/config"
	"github.com/localrag/localrag/internal/embed"
	"github.com/localrag/localrag/internal/indexer"
)

// openIndexer loads configuration for projectPath, builds an Embedder from
// it, and constructs an Indexer. Callers must Close() the returned Indexer.
func openIndexer(projectPath string, progress indexer.ProgressReporter) (*indexer.Indexer, error) {
	cfg, err := config.LoadConfigFromDir(projectPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if verbose {
		log.Printf("cli: loaded configuration for %s: embedding.preferred_method=%s chunking.strategy=%s",
			projectPath, cfg.Embedding.PreferredMethod, cfg.Chunking.Strategy)
	}

	embedder, err := embed.New(cfg.ToEmbedConfig())
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	idxCfg := cfg.ToIndexerConfig(projectPath, embedder)
	idxCfg.Progress = progress

	idx, err := indexer.New(idxCfg)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("open indexer: %w", err)
	}
	return idx, nil
}
