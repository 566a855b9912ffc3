package config

import (
	"github.com/localrag/localrag/internal/chunk"
	"github.com/localrag/localrag/internal/embed"
	"github.com/localrag/localrag/internal/indexer"
	"github.com/localrag/localrag/internal/walker"
)

// ToIndexerConfig converts c to an indexer.Config rooted at rootDir. The
// caller supplies an already-constructed Embedder (built via
// embed.New(c.ToEmbedConfig())) since Config itself only carries the
// embedder's selection parameters, not a live instance.
func (c *Config) ToIndexerConfig(rootDir string, embedder embed.Embedder) indexer.Config {
	walkerOpts := c.ToWalkerOptions()
	walkerOpts.Root = rootDir
	return indexer.Config{
		RootDir:        rootDir,
		Embedder:       embedder,
		ChunkOptions:   c.ToChunkOptions(),
		WalkerOptions:  walkerOpts,
		EmbedBatchSize: c.Embedding.BatchSize,
	}
}

// ToEmbedConfig converts the embedding section to an embed.Config. The
// config-level "auto" method maps to embed.Config's empty PreferredMethod,
// which triggers its remote→local→hash probe chain.
func (c *Config) ToEmbedConfig() embed.Config {
	method := c.Embedding.PreferredMethod
	if method == "auto" {
		method = ""
	}
	return embed.Config{
		PreferredMethod: method,
		Endpoint:        c.Embedding.Endpoint,
		Model:           c.Embedding.Model,
	}
}

// ToChunkOptions converts the chunking section to chunk.Options.
func (c *Config) ToChunkOptions() chunk.Options {
	opts := chunk.Default()
	opts.MaxChunkSize = c.Chunking.MaxSize
	opts.MinChunkSize = c.Chunking.MinSize
	return opts
}

// ToWalkerOptions converts the files section to walker.Options. rootDir is
// filled in by the caller (the indexer sets it from its own RootDir).
func (c *Config) ToWalkerOptions() walker.Options {
	return walker.Options{
		Include:     c.Files.IncludePatterns,
		Exclude:     c.Files.ExcludePatterns,
		MinFileSize: int64(c.Files.MinFileSize),
	}
}
