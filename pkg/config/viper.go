package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/studyloop/satchel/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SATCHEL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SATCHEL_API_LISTEN, SATCHEL_CORPUS_PATH, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SATCHEL_API_LISTEN, SATCHEL_EMBEDDING_MODEL, etc.
	v.SetEnvPrefix("SATCHEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the viper precedence chain, so
// commands receive one fully resolved value regardless of whether a field
// came from a flag, the environment, the file, or a default.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Corpus: CorpusConfig{
			Path:  v.GetString("corpus.path"),
			Watch: v.GetBool("corpus.watch"),
		},
		Index: IndexConfig{
			Dir:       v.GetString("index.dir"),
			BatchSize: v.GetUint("index.batch_size"),
			Workers:   v.GetUint("index.workers"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Reranker: RerankerConfig{
			Enabled:   v.GetBool("reranker.enabled"),
			Provider:  v.GetString("reranker.provider"),
			Target:    v.GetString("reranker.target"),
			Model:     v.GetString("reranker.model"),
			MaxLength: v.GetUint("reranker.max_length"),
		},
		Retrieval: RetrievalConfig{
			TopK:             v.GetUint("retrieval.top_k"),
			RerankCandidates: v.GetUint("retrieval.rerank_candidates"),
			MinSimilarity:    v.GetFloat64("retrieval.min_similarity"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Corpus
	v.SetDefault("corpus.path", d.Corpus.Path)
	v.SetDefault("corpus.watch", d.Corpus.Watch)

	// Index
	v.SetDefault("index.dir", d.Index.Dir)
	v.SetDefault("index.batch_size", d.Index.BatchSize)
	v.SetDefault("index.workers", d.Index.Workers)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Reranker
	v.SetDefault("reranker.enabled", d.Reranker.Enabled)
	v.SetDefault("reranker.provider", d.Reranker.Provider)
	v.SetDefault("reranker.target", d.Reranker.Target)
	v.SetDefault("reranker.model", d.Reranker.Model)
	v.SetDefault("reranker.max_length", d.Reranker.MaxLength)

	// Retrieval
	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.rerank_candidates", d.Retrieval.RerankCandidates)
	v.SetDefault("retrieval.min_similarity", d.Retrieval.MinSimilarity)
}
