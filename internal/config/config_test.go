package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "semantic", cfg.Chunking.Strategy)
	assert.Equal(t, 2000, cfg.Chunking.MaxSize)
	assert.Equal(t, 50, cfg.Chunking.MinSize)

	assert.True(t, cfg.Streaming.Enabled)
	assert.Equal(t, 1<<20, cfg.Streaming.ThresholdBytes)

	assert.NotEmpty(t, cfg.Files.ExcludePatterns)
	assert.NotEmpty(t, cfg.Files.IncludePatterns)

	assert.Equal(t, "auto", cfg.Embedding.PreferredMethod)
	assert.NotEmpty(t, cfg.Embedding.Model)
	assert.Equal(t, 200, cfg.Embedding.BatchSize)

	assert.Equal(t, 10, cfg.Search.DefaultTopK)
	assert.True(t, cfg.Search.EnableBM25)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, Default().Chunking, cfg.Chunking)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoadConfig_MergesConfigFileOverDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	configDir := filepath.Join(root, ".localrag")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	yaml := `
chunking:
  max_size: 4000
search:
  default_top_k: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yaml), 0o644))

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Chunking.MaxSize)
	assert.Equal(t, 25, cfg.Search.DefaultTopK)
	// Untouched keys keep their defaults.
	assert.Equal(t, "semantic", cfg.Chunking.Strategy)
	assert.Equal(t, 200, cfg.Embedding.BatchSize)
}

func TestLoadConfig_EnvironmentOverridesConfigFile(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, ".localrag")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	yaml := "search:\n  default_top_k: 25\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yaml), 0o644))

	t.Setenv("LOCALRAG_SEARCH_DEFAULT_TOP_K", "50")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.DefaultTopK)
}

func TestLoadConfig_UnknownKeyIsWarningNotError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	configDir := filepath.Join(root, ".localrag")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	yaml := "chunking:\n  max_size: 1000\nnonexistent_section:\n  foo: bar\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yaml), 0o644))

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Chunking.MaxSize)
}

func TestLoadConfig_MalformedYAMLReturnsError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	configDir := filepath.Join(root, ".localrag")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte("chunking: [unterminated"), 0o644))

	_, err := NewLoader(root).Load()
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValuesReturnError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	configDir := filepath.Join(root, ".localrag")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	yaml := "chunking:\n  strategy: bogus\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yaml), 0o644))

	_, err := NewLoader(root).Load()
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}
