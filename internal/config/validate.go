package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidStrategy indicates an unsupported chunking strategy.
	ErrInvalidStrategy = errors.New("invalid chunking strategy")

	// ErrInvalidChunkSize indicates invalid chunk size bounds.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidThreshold indicates an invalid streaming threshold.
	ErrInvalidThreshold = errors.New("invalid streaming threshold")

	// ErrInvalidMethod indicates an unsupported embedding method.
	ErrInvalidMethod = errors.New("invalid embedding method")

	// ErrEmptyModel indicates a missing embedding model name.
	ErrEmptyModel = errors.New("empty embedding model")

	// ErrInvalidBatchSize indicates a non-positive embedding batch size.
	ErrInvalidBatchSize = errors.New("invalid embedding batch size")

	// ErrInvalidTopK indicates a non-positive default_top_k.
	ErrInvalidTopK = errors.New("invalid default_top_k")

	// ErrInvalidSimilarity indicates a similarity_threshold outside [0, 1].
	ErrInvalidSimilarity = errors.New("invalid similarity_threshold")
)

// Validate checks that cfg is internally consistent.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}
	if err := validateStreaming(&cfg.Streaming); err != nil {
		errs = append(errs, err)
	}
	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateSearch(&cfg.Search); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateChunking(cfg *ChunkingConfig) error {
	var errs []error

	strategy := strings.ToLower(cfg.Strategy)
	if strategy != "semantic" && strategy != "fixed" {
		errs = append(errs, fmt.Errorf("%w: must be 'semantic' or 'fixed', got %q", ErrInvalidStrategy, cfg.Strategy))
	}
	if cfg.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_size must be positive, got %d", ErrInvalidChunkSize, cfg.MaxSize))
	}
	if cfg.MinSize < 0 {
		errs = append(errs, fmt.Errorf("%w: min_size cannot be negative, got %d", ErrInvalidChunkSize, cfg.MinSize))
	}
	if cfg.MaxSize > 0 && cfg.MinSize >= cfg.MaxSize {
		errs = append(errs, fmt.Errorf("%w: min_size (%d) must be less than max_size (%d)", ErrInvalidChunkSize, cfg.MinSize, cfg.MaxSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateStreaming(cfg *StreamingConfig) error {
	if cfg.ThresholdBytes < 0 {
		return fmt.Errorf("%w: threshold_bytes cannot be negative, got %d", ErrInvalidThreshold, cfg.ThresholdBytes)
	}
	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	method := strings.ToLower(cfg.PreferredMethod)
	switch method {
	case "remote", "local", "hash", "auto":
	default:
		errs = append(errs, fmt.Errorf("%w: must be one of remote, local, hash, auto, got %q", ErrInvalidMethod, cfg.PreferredMethod))
	}
	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
	}
	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.BatchSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateSearch(cfg *SearchConfig) error {
	var errs []error

	if cfg.DefaultTopK <= 0 {
		errs = append(errs, fmt.Errorf("%w: default_top_k must be positive, got %d", ErrInvalidTopK, cfg.DefaultTopK))
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: must be within [0, 1], got %v", ErrInvalidSimilarity, cfg.SimilarityThreshold))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
