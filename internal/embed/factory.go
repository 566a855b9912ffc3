package embed

import "fmt"

// Config selects and configures the embedding tier ladder.
type Config struct {
	// PreferredMethod forces a tier ("remote", "local", "hash", "mock");
	// empty means try remote, then local, then fall back to hash.
	PreferredMethod string
	Endpoint        string
	LocalBinaryPath string
	LocalPort       int
	Model           string
	Dimension       int
}

func (c Config) withDefaults() Config {
	if c.Dimension <= 0 {
		c.Dimension = 384
	}
	if c.LocalPort <= 0 {
		c.LocalPort = 8121
	}
	return c
}

// New builds an Embedder for cfg. When PreferredMethod is empty it uses
// remote if its health probe answers, else local if a binary is
// configured (local is not probed), else hash. The result is always
// wrapped with a query cache.
func New(cfg Config) (Embedder, error) {
	cfg = cfg.withDefaults()

	var inner Embedder
	switch cfg.PreferredMethod {
	case "remote":
		inner = withHashFallback(newRemoteEmbedder(cfg.Endpoint, cfg.Model, cfg.Dimension), cfg.Dimension)
	case "local":
		inner = withHashFallback(newLocalEmbedder(cfg.LocalBinaryPath, cfg.LocalPort, cfg.Model, cfg.Dimension), cfg.Dimension)
	case "hash":
		inner = newHashEmbedder(cfg.Dimension)
	case "mock":
		inner = NewMock(cfg.Dimension)
	case "":
		inner = autoSelect(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding method: %s (supported: remote, local, hash, mock)", cfg.PreferredMethod)
	}

	return withQueryCache(inner), nil
}

// autoSelect implements the unforced fallback chain: remote if reachable,
// else local if a binary is configured, else hash. Whichever non-hash tier
// is selected still gets a hash fallback wrapper so per-item failures
// degrade rather than abort the batch.
func autoSelect(cfg Config) Embedder {
	if cfg.Endpoint != "" && probeRemote(cfg.Endpoint) {
		return withHashFallback(newRemoteEmbedder(cfg.Endpoint, cfg.Model, cfg.Dimension), cfg.Dimension)
	}
	if cfg.LocalBinaryPath != "" {
		return withHashFallback(newLocalEmbedder(cfg.LocalBinaryPath, cfg.LocalPort, cfg.Model, cfg.Dimension), cfg.Dimension)
	}
	return newHashEmbedder(cfg.Dimension)
}
