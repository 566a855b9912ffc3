package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Loader loads a Config from a project root, per §6.3: defaults, then
// .localrag/config.yml, then LOCALRAG_* environment variables (highest
// priority wins).
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader builds a Loader rooted at rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".localrag")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("LOCALRAG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"chunking.max_size", "chunking.min_size", "chunking.strategy",
		"streaming.enabled", "streaming.threshold_bytes",
		"files.min_file_size", "files.exclude_patterns", "files.include_patterns",
		"embedding.preferred_method", "embedding.model", "embedding.endpoint", "embedding.batch_size",
		"search.default_top_k", "search.enable_bm25", "search.similarity_threshold", "search.expand_queries",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		var unused *mapstructure.Error
		if errors.As(err, &unused) {
			logUnknownKeys(unused)
			if err := v.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("unmarshal config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// logUnknownKeys reports unrecognized config keys as warnings, per §6.3:
// unknown keys are advisory, never a hard failure.
func logUnknownKeys(err *mapstructure.Error) {
	for _, e := range err.Errors {
		log.Printf("config: warning: %s", e)
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("chunking.max_size", d.Chunking.MaxSize)
	v.SetDefault("chunking.min_size", d.Chunking.MinSize)
	v.SetDefault("chunking.strategy", d.Chunking.Strategy)

	v.SetDefault("streaming.enabled", d.Streaming.Enabled)
	v.SetDefault("streaming.threshold_bytes", d.Streaming.ThresholdBytes)

	v.SetDefault("files.min_file_size", d.Files.MinFileSize)
	v.SetDefault("files.exclude_patterns", d.Files.ExcludePatterns)
	v.SetDefault("files.include_patterns", d.Files.IncludePatterns)

	v.SetDefault("embedding.preferred_method", d.Embedding.PreferredMethod)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.batch_size", d.Embedding.BatchSize)

	v.SetDefault("search.default_top_k", d.Search.DefaultTopK)
	v.SetDefault("search.enable_bm25", d.Search.EnableBM25)
	v.SetDefault("search.similarity_threshold", d.Search.SimilarityThreshold)
	v.SetDefault("search.expand_queries", d.Search.ExpandQueries)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at rootDir.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
