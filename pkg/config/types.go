package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent satchel configuration stored as
// config.toml in the .satchel/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Corpus    CorpusConfig    `toml:"corpus"`
	Index     IndexConfig     `toml:"index"`
	API       APIConfig       `toml:"api"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Reranker  RerankerConfig  `toml:"reranker"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// CorpusConfig holds the knowledge corpus source settings.
type CorpusConfig struct {
	Path  string `toml:"path,omitempty"`
	Watch bool   `toml:"watch,omitempty"`
}

// IndexConfig holds vector index lifecycle settings. An empty Dir means the
// default index/ subdirectory of the resolved .satchel/ directory.
type IndexConfig struct {
	Dir       string `toml:"dir,omitempty"`
	BatchSize uint   `toml:"batch_size,omitempty"`
	Workers   uint   `toml:"workers,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// RerankerConfig holds reranker provider settings.
type RerankerConfig struct {
	Enabled   bool   `toml:"enabled,omitempty"`
	Provider  string `toml:"provider,omitempty"`
	Target    string `toml:"target,omitempty"`
	Model     string `toml:"model,omitempty"`
	MaxLength uint   `toml:"max_length,omitempty"`
}

// RetrievalConfig holds default retrieval parameters. Per-request values
// override these.
type RetrievalConfig struct {
	TopK             uint    `toml:"top_k,omitempty"`
	RerankCandidates uint    `toml:"rerank_candidates,omitempty"`
	MinSimilarity    float64 `toml:"min_similarity,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"corpus.path": {
		get: func(c *Config) string { return c.Corpus.Path },
		set: func(c *Config, v string) error { c.Corpus.Path = v; return nil },
	},
	"corpus.watch": {
		get: func(c *Config) string { return strconv.FormatBool(c.Corpus.Watch) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for corpus.watch: %w", err)
			}
			c.Corpus.Watch = b
			return nil
		},
	},
	"index.dir": {
		get: func(c *Config) string { return c.Index.Dir },
		set: func(c *Config, v string) error { c.Index.Dir = v; return nil },
	},
	"index.batch_size": {
		get: func(c *Config) string { return formatUint(c.Index.BatchSize) },
		set: func(c *Config, v string) error {
			n, err := parseUintValue(v, "index.batch_size")
			if err != nil {
				return err
			}
			c.Index.BatchSize = n
			return nil
		},
	},
	"index.workers": {
		get: func(c *Config) string { return formatUint(c.Index.Workers) },
		set: func(c *Config, v string) error {
			n, err := parseUintValue(v, "index.workers")
			if err != nil {
				return err
			}
			c.Index.Workers = n
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string { return formatUint(c.Embedding.Dimensions) },
		set: func(c *Config, v string) error {
			n, err := parseUintValue(v, "embedding.dimensions")
			if err != nil {
				return err
			}
			c.Embedding.Dimensions = n
			return nil
		},
	},
	"reranker.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Reranker.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for reranker.enabled: %w", err)
			}
			c.Reranker.Enabled = b
			return nil
		},
	},
	"reranker.provider": {
		get: func(c *Config) string { return c.Reranker.Provider },
		set: func(c *Config, v string) error { c.Reranker.Provider = v; return nil },
	},
	"reranker.target": {
		get: func(c *Config) string { return c.Reranker.Target },
		set: func(c *Config, v string) error { c.Reranker.Target = v; return nil },
	},
	"reranker.model": {
		get: func(c *Config) string { return c.Reranker.Model },
		set: func(c *Config, v string) error { c.Reranker.Model = v; return nil },
	},
	"reranker.max_length": {
		get: func(c *Config) string { return formatUint(c.Reranker.MaxLength) },
		set: func(c *Config, v string) error {
			n, err := parseUintValue(v, "reranker.max_length")
			if err != nil {
				return err
			}
			c.Reranker.MaxLength = n
			return nil
		},
	},
	"retrieval.top_k": {
		get: func(c *Config) string { return formatUint(c.Retrieval.TopK) },
		set: func(c *Config, v string) error {
			n, err := parseUintValue(v, "retrieval.top_k")
			if err != nil {
				return err
			}
			c.Retrieval.TopK = n
			return nil
		},
	},
	"retrieval.rerank_candidates": {
		get: func(c *Config) string { return formatUint(c.Retrieval.RerankCandidates) },
		set: func(c *Config, v string) error {
			n, err := parseUintValue(v, "retrieval.rerank_candidates")
			if err != nil {
				return err
			}
			c.Retrieval.RerankCandidates = n
			return nil
		},
	},
	"retrieval.min_similarity": {
		get: func(c *Config) string {
			if c.Retrieval.MinSimilarity == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Retrieval.MinSimilarity, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for retrieval.min_similarity: %w", err)
			}
			c.Retrieval.MinSimilarity = f
			return nil
		},
	},
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func parseUintValue(v, key string) (uint, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return uint(n), nil
}
