// Package index owns the vector index lifecycle: deciding at startup
// whether a persisted index can be reused or must be rebuilt, rebuilding
// and persisting on demand, and handing the query path a consistent
// (corpus, index) snapshot.
//
// The index is the engine's single mutable shared resource. It is guarded
// by copy-then-swap: a rebuild assembles the complete new state in
// isolation and then atomically replaces the snapshot pointer, so readers
// never observe a partially built index and in-flight queries finish
// against the old, still-consistent view.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/embeddings"
	"github.com/studyloop/satchel/pkg/knowledge"
	"github.com/studyloop/satchel/pkg/vector"
	"github.com/studyloop/satchel/pkg/worker"
)

const defaultEmbedBatchSize = 32

// ErrNotInitialized is returned when the index is queried before
// Initialize has completed.
var ErrNotInitialized = errors.New("index not initialized")

// Config holds configuration for the index manager.
type Config struct {
	// Dir is the directory holding the persisted index bytes and metadata.
	// Empty disables persistence; the index is rebuilt on every startup.
	Dir string

	// Dimensions is the expected embedding dimension. When non-zero, a
	// persisted index with a different dimension is rejected like a
	// fingerprint mismatch. Zero trusts the stored dimension.
	Dimensions int

	// BatchSize is how many entry texts are embedded per capability call
	// during a rebuild. Defaults to 32.
	BatchSize int

	// Workers is the number of concurrent embedding batches during a
	// rebuild. Zero uses the worker pool default.
	Workers uint
}

// State is one immutable generation of the index: the corpus it was built
// from, the normalized vectors, and the fingerprint that identifies the
// pairing. Index rows correspond to corpus positions.
type State struct {
	Corpus      *knowledge.Corpus
	Index       *vector.Index
	Fingerprint string
}

// Manager builds, persists, and swaps index generations.
type Manager struct {
	source   knowledge.Source
	embedder embeddings.Embedder
	cfg      Config
	pool     *worker.Pool
	logger   *zap.Logger

	state atomic.Pointer[State]

	// rebuildMu serializes rebuilds; queries never take it.
	rebuildMu sync.Mutex
}

// NewManager creates an index manager. Initialize must be called before
// the first query.
func NewManager(source knowledge.Source, embedder embeddings.Embedder, cfg Config, logger *zap.Logger) (*Manager, error) {
	if source == nil {
		return nil, errors.New("corpus source is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultEmbedBatchSize
	}

	pool, err := worker.NewPool(&worker.Config{
		NumWorkers: cfg.Workers,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &Manager{
		source:   source,
		embedder: embedder,
		cfg:      cfg,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Initialize loads the corpus and either adopts a persisted index whose
// fingerprint matches or performs a full rebuild. An embedding failure
// during a required rebuild is fatal; persistence problems are not.
func (m *Manager) Initialize(ctx context.Context) error {
	corpus, fingerprint, err := m.loadCorpus(ctx)
	if err != nil {
		return err
	}

	if st := m.loadPersisted(corpus, fingerprint); st != nil {
		m.state.Store(st)
		m.logger.Info("persisted index loaded",
			zap.Int("vector_count", st.Index.Len()),
			zap.Int("dimension", st.Index.Dim()),
		)
		return nil
	}

	return m.rebuild(ctx, corpus, fingerprint)
}

// Rebuild unconditionally rebuilds the index from the current in-memory
// corpus, bypassing any persisted state.
func (m *Manager) Rebuild(ctx context.Context) error {
	st := m.state.Load()
	if st == nil {
		return ErrNotInitialized
	}

	mtime, err := m.source.ModTime()
	if err != nil {
		m.logger.Warn("reading corpus mtime", zap.Error(err))
	}
	return m.rebuild(ctx, st.Corpus, Fingerprint(st.Corpus, mtime, m.embedder.ModelName()))
}

// Refresh reloads the corpus from its source and rebuilds the index.
// Used when the underlying corpus content has changed during the process
// lifetime (watcher events, reindex requests).
func (m *Manager) Refresh(ctx context.Context) error {
	corpus, fingerprint, err := m.loadCorpus(ctx)
	if err != nil {
		return err
	}
	return m.rebuild(ctx, corpus, fingerprint)
}

// Snapshot returns the current immutable state for the query path, or an
// error before initialization. The returned state must not be modified.
func (m *Manager) Snapshot() (*State, error) {
	st := m.state.Load()
	if st == nil {
		return nil, ErrNotInitialized
	}
	return st, nil
}

// Persisted reports whether index artifacts exist at the configured
// location.
func (m *Manager) Persisted() bool {
	return m.cfg.Dir != "" && metadataExists(m.cfg.Dir)
}

func (m *Manager) loadCorpus(ctx context.Context) (*knowledge.Corpus, string, error) {
	entries, err := m.source.Load(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("loading corpus from %s: %w", m.source.Location(), err)
	}

	corpus := knowledge.NewCorpus(entries)

	mtime, err := m.source.ModTime()
	if err != nil {
		m.logger.Warn("reading corpus mtime", zap.Error(err))
	}

	return corpus, Fingerprint(corpus, mtime, m.embedder.ModelName()), nil
}

// loadPersisted attempts to adopt a persisted index for the given corpus.
// Any mismatch or read failure returns nil and the caller rebuilds.
func (m *Manager) loadPersisted(corpus *knowledge.Corpus, fingerprint string) *State {
	if m.cfg.Dir == "" {
		return nil
	}

	meta, err := readMetadata(m.cfg.Dir)
	if err != nil {
		m.logger.Info("no usable persisted index, will rebuild", zap.Error(err))
		return nil
	}

	switch {
	case meta.Fingerprint != fingerprint:
		m.logger.Info("corpus fingerprint changed, rebuilding index")
		return nil
	case meta.EmbeddingModel != m.embedder.ModelName():
		m.logger.Info("embedding model changed, rebuilding index",
			zap.String("stored", meta.EmbeddingModel),
			zap.String("current", m.embedder.ModelName()),
		)
		return nil
	case meta.VectorCount != corpus.Len():
		m.logger.Info("index size mismatch, rebuilding",
			zap.Int("stored", meta.VectorCount),
			zap.Int("corpus", corpus.Len()),
		)
		return nil
	case m.cfg.Dimensions > 0 && meta.Dimension != m.cfg.Dimensions:
		m.logger.Info("embedding dimension changed, rebuilding index",
			zap.Int("stored", meta.Dimension),
			zap.Int("configured", m.cfg.Dimensions),
		)
		return nil
	}

	ix, err := readVectors(m.cfg.Dir, meta)
	if err != nil {
		m.logger.Warn("persisted index unreadable, will rebuild", zap.Error(err))
		return nil
	}

	return &State{
		Corpus:      corpus,
		Index:       ix,
		Fingerprint: fingerprint,
	}
}

// rebuild embeds every entry, builds a fresh index, swaps it in, and then
// persists best-effort. An embedding failure aborts with the old state
// intact.
func (m *Manager) rebuild(ctx context.Context, corpus *knowledge.Corpus, fingerprint string) error {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	ix, err := m.buildIndex(ctx, corpus)
	if err != nil {
		return err
	}

	st := &State{
		Corpus:      corpus,
		Index:       ix,
		Fingerprint: fingerprint,
	}
	m.state.Store(st)

	m.logger.Info("index rebuilt",
		zap.Int("vector_count", ix.Len()),
		zap.Int("dimension", ix.Dim()),
	)

	if m.cfg.Dir == "" {
		return nil
	}
	if err := writeIndex(m.cfg.Dir, st, m.embedder.ModelName()); err != nil {
		// Non-fatal: serve from memory, rebuild again next startup.
		m.logger.Warn("could not persist index, it will be rebuilt on next startup", zap.Error(err))
	}
	return nil
}

func (m *Manager) buildIndex(ctx context.Context, corpus *knowledge.Corpus) (*vector.Index, error) {
	if corpus.Len() == 0 {
		return vector.NewIndex(m.cfg.Dimensions), nil
	}

	texts := make([]string, corpus.Len())
	for i := range texts {
		texts[i] = corpus.Entry(i).EmbeddingText()
	}

	rows := make([][]float32, len(texts))
	var tasks []worker.Task
	for start := 0; start < len(texts); start += m.cfg.BatchSize {
		end := min(start+m.cfg.BatchSize, len(texts))
		tasks = append(tasks, func(ctx context.Context) error {
			vecs, err := m.embedder.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			for i, vec := range vecs {
				rows[start+i] = vector.NormalizeL2(vec)
			}
			return nil
		})
	}

	if err := m.pool.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("embedding corpus: %w", err)
	}

	ix, err := vector.NewIndexFromMatrix(rows)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	if m.cfg.Dimensions > 0 && ix.Dim() != m.cfg.Dimensions {
		return nil, fmt.Errorf("%w: embedder produced %d, configured %d",
			vector.ErrDimensionMismatch, ix.Dim(), m.cfg.Dimensions)
	}
	return ix, nil
}
