// Package engine assembles the retrieval stack from configuration: corpus
// source, embedding provider, optional reranker, index manager, and the
// two-stage pipeline.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/config"
	"github.com/studyloop/satchel/pkg/dotdir"
	"github.com/studyloop/satchel/pkg/embeddings"
	embeddingutils "github.com/studyloop/satchel/pkg/embeddings/utils"
	"github.com/studyloop/satchel/pkg/index"
	"github.com/studyloop/satchel/pkg/knowledge"
	"github.com/studyloop/satchel/pkg/rerank"
	rerankutils "github.com/studyloop/satchel/pkg/rerank/utils"
	"github.com/studyloop/satchel/pkg/retrieval"
)

// Engine owns the assembled retrieval stack and its lifecycle.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger

	source   knowledge.Source
	embedder embeddings.Embedder
	reranker rerank.Reranker

	manager  *index.Manager
	pipeline *retrieval.Pipeline

	watcher *index.Watcher
}

// Option configures engine assembly.
type Option func(*options)

type options struct {
	enricher retrieval.Enricher
	source   knowledge.Source
	embedder embeddings.Embedder
	reranker rerank.Reranker
}

// WithEnricher supplies an external query enrichment capability.
func WithEnricher(e retrieval.Enricher) Option {
	return func(o *options) {
		o.enricher = e
	}
}

// WithSource overrides the file-based corpus source.
func WithSource(s knowledge.Source) Option {
	return func(o *options) {
		o.source = s
	}
}

// WithEmbedder overrides the provider-built embedder.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithReranker overrides the provider-built reranker. It is only consulted
// when the configuration enables reranking.
func WithReranker(r rerank.Reranker) Option {
	return func(o *options) {
		o.reranker = r
	}
}

// New assembles the engine and builds or adopts the index. A reranker that
// cannot be constructed is not fatal: the engine starts degraded and the
// pipeline falls back to similarity retrieval.
func New(ctx context.Context, cfg *config.Config, configDir string, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	source := o.source
	if source == nil {
		source = knowledge.NewFileSource(cfg.Corpus.Path)
	}

	embedder := o.embedder
	if embedder == nil {
		var err error
		embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: cfg.Embedding.Provider,
			TargetURL:    cfg.Embedding.Target,
			Model:        cfg.Embedding.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
	}

	var reranker rerank.Reranker
	if cfg.Reranker.Enabled {
		reranker = o.reranker
		if reranker == nil {
			var err error
			reranker, err = rerankutils.NewReranker(&rerankutils.NewRerankerOpts{
				ProviderType: cfg.Reranker.Provider,
				TargetURL:    cfg.Reranker.Target,
				Model:        cfg.Reranker.Model,
				MaxLength:    int(cfg.Reranker.MaxLength),
			})
			if err != nil {
				logger.Warn("reranker unavailable, continuing with similarity retrieval only",
					zap.String("provider", cfg.Reranker.Provider),
					zap.Error(err),
				)
				reranker = nil
			}
		}
	}

	indexDir := cfg.Index.Dir
	if indexDir == "" {
		resolved, err := dotdir.NewManager().IndexDir(configDir)
		if err != nil {
			logger.Warn("could not resolve index directory, persistence disabled", zap.Error(err))
		} else {
			indexDir = resolved
		}
	}

	manager, err := index.NewManager(source, embedder, index.Config{
		Dir:        indexDir,
		Dimensions: int(cfg.Embedding.Dimensions),
		BatchSize:  int(cfg.Index.BatchSize),
		Workers:    cfg.Index.Workers,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating index manager: %w", err)
	}

	if err := manager.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing index: %w", err)
	}

	var retrieverOpts []retrieval.Option
	if o.enricher != nil {
		retrieverOpts = append(retrieverOpts, retrieval.WithEnricher(o.enricher))
	}
	retriever := retrieval.NewRetriever(manager, embedder, logger, retrieverOpts...)

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		source:   source,
		embedder: embedder,
		reranker: reranker,
		manager:  manager,
		pipeline: retrieval.NewPipeline(retriever, reranker, logger),
	}, nil
}

// Pipeline returns the two-stage retrieval pipeline.
func (e *Engine) Pipeline() *retrieval.Pipeline {
	return e.pipeline
}

// Manager returns the index lifecycle manager.
func (e *Engine) Manager() *index.Manager {
	return e.manager
}

// Config returns the configuration the engine was assembled from.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Watch starts the corpus file watcher so on-disk corpus edits trigger an
// index refresh. No-op when already watching.
func (e *Engine) Watch(ctx context.Context) error {
	if e.watcher != nil {
		return nil
	}

	watcher, err := index.NewWatcher(e.manager, e.source.Location(), e.logger)
	if err != nil {
		return err
	}
	watcher.Start(ctx)
	e.watcher = watcher

	e.logger.Info("watching corpus for changes", zap.String("path", e.source.Location()))
	return nil
}

// Close releases the watcher and provider connections.
func (e *Engine) Close() error {
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			e.logger.Warn("closing corpus watcher", zap.Error(err))
		}
		e.watcher = nil
	}
	if e.reranker != nil {
		if err := e.reranker.Close(); err != nil {
			e.logger.Warn("closing reranker", zap.Error(err))
		}
	}
	return e.embedder.Close()
}
