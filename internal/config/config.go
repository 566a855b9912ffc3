// Package config loads localrag's on-disk/environment configuration: chunk
// sizing, streaming thresholds, file discovery patterns, embedding provider
// selection, and search defaults.
package config

// Config is the complete localrag configuration, loadable from
// .localrag/config.yml with LOCALRAG_* environment overrides.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Streaming StreamingConfig `yaml:"streaming" mapstructure:"streaming"`
	Files     FilesConfig     `yaml:"files" mapstructure:"files"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
}

// ChunkingConfig bounds chunk size. Strategy is loaded and validated but
// not passed to the chunker, which picks its strategy by language.
type ChunkingConfig struct {
	MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
	MinSize  int    `yaml:"min_size" mapstructure:"min_size"`
	Strategy string `yaml:"strategy" mapstructure:"strategy"` // "semantic" or "fixed"
}

// StreamingConfig holds the streaming settings. They are loaded and
// validated but not passed to the walker or indexer; the indexer reads
// every file through a 64 KiB buffer whatever its size.
type StreamingConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	ThresholdBytes int  `yaml:"threshold_bytes" mapstructure:"threshold_bytes"`
}

// FilesConfig controls which files the walker considers candidates.
type FilesConfig struct {
	MinFileSize     int      `yaml:"min_file_size" mapstructure:"min_file_size"`
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
	IncludePatterns []string `yaml:"include_patterns" mapstructure:"include_patterns"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	PreferredMethod string `yaml:"preferred_method" mapstructure:"preferred_method"` // remote, local, hash, auto
	Model           string `yaml:"model" mapstructure:"model"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	BatchSize       int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// SearchConfig sets retrieval defaults applied when a caller doesn't
// override them per-query.
type SearchConfig struct {
	DefaultTopK         int     `yaml:"default_top_k" mapstructure:"default_top_k"`
	EnableBM25          bool    `yaml:"enable_bm25" mapstructure:"enable_bm25"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	ExpandQueries       bool    `yaml:"expand_queries" mapstructure:"expand_queries"`
}

// Default returns a configuration with sensible defaults, used both as the
// viper SetDefault baseline and as the fallback for programmatic callers
// that skip config loading entirely.
func Default() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxSize:  2000,
			MinSize:  50,
			Strategy: "semantic",
		},
		Streaming: StreamingConfig{
			Enabled:        true,
			ThresholdBytes: 1 << 20,
		},
		Files: FilesConfig{
			MinFileSize: 1,
			ExcludePatterns: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"__pycache__/**",
				"*.pyc",
			},
			IncludePatterns: []string{"**"},
		},
		Embedding: EmbeddingConfig{
			PreferredMethod: "auto",
			Model:           "BAAI/bge-small-en-v1.5",
			Endpoint:        "http://localhost:8121",
			BatchSize:       200,
		},
		Search: SearchConfig{
			DefaultTopK:         10,
			EnableBM25:          true,
			SimilarityThreshold: 0.0,
			ExpandQueries:       false,
		},
	}
}
