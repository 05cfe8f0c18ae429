// Package retrieval maps free-text questions to ranked corpus entries.
// Stage 1 is cheap, broad embedding-space similarity against the vector
// index; stage 2 optionally refines a candidate shortlist with a
// cross-encoder reranker and fuses the two signals.
//
// Every public operation guarantees: scores in [0,1], lists sorted by score
// descending with ties in corpus order, deterministic results against an
// unchanged index, and an empty result (never an error) for blank queries.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/embeddings"
	"github.com/studyloop/satchel/pkg/index"
	"github.com/studyloop/satchel/pkg/knowledge"
	"github.com/studyloop/satchel/pkg/vector"
)

// SimilarityAlgorithm identifies the stage-1 scoring scheme on the stats
// surface.
const SimilarityAlgorithm = "cosine similarity (L2-normalized)"

// thresholdOverfetch is the over-fetch multiplier used by
// RetrieveWithThreshold before filtering.
const thresholdOverfetch = 2

// Result pairs a corpus entry with its relevance score: embedding
// similarity after stage 1, fused relevance after stage 2.
type Result struct {
	Entry knowledge.Entry `json:"entry"`
	Score float64         `json:"score"`
}

// Enricher rewrites a query before stage 1. It is an external capability;
// its output is treated as an opaque query string. Enrichment is applied
// exactly once per retrieval call.
type Enricher interface {
	Enrich(query string) string
	Name() string
}

// Retriever answers stage-1 similarity queries against the index manager's
// current snapshot.
type Retriever struct {
	manager  *index.Manager
	embedder embeddings.Embedder
	enricher Enricher
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithEnricher sets the optional query enrichment capability.
func WithEnricher(e Enricher) Option {
	return func(r *Retriever) {
		r.enricher = e
	}
}

// NewRetriever creates a similarity retriever over the managed index.
func NewRetriever(manager *index.Manager, embedder embeddings.Embedder, logger *zap.Logger, opts ...Option) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Retriever{
		manager:  manager,
		embedder: embedder,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Manager returns the index manager backing the retriever.
func (r *Retriever) Manager() *index.Manager {
	return r.manager
}

// Retrieve returns up to topK entries ranked by embedding similarity.
// A blank query or topK <= 0 yields an empty result and no error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return r.retrieve(ctx, r.enrich(query), topK)
}

// RetrieveWithThreshold returns up to topK entries whose similarity is at
// least minSimilarity. It over-fetches 2x topK candidates before
// filtering; the multiplier is a heuristic, so fewer than topK qualifying
// results may be returned when many low-scoring entries interleave with
// qualifying ones.
func (r *Retriever) RetrieveWithThreshold(ctx context.Context, query string, topK int, minSimilarity float64) ([]Result, error) {
	results, err := r.Retrieve(ctx, query, topK*thresholdOverfetch)
	if err != nil {
		return nil, err
	}

	filtered := make([]Result, 0, len(results))
	for _, res := range results {
		if res.Score >= minSimilarity {
			filtered = append(filtered, res)
		}
	}
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return filtered, nil
}

// enrich applies the enrichment capability once, if configured.
func (r *Retriever) enrich(query string) string {
	if r.enricher == nil {
		return query
	}

	enriched := r.enricher.Enrich(query)
	r.logger.Debug("query enriched",
		zap.String("enricher", r.enricher.Name()),
		zap.String("query", query),
		zap.String("enriched", enriched),
	)
	return enriched
}

// retrieve is the non-enriching search path shared with the two-stage
// pipeline, which enriches at its own entry point.
func (r *Retriever) retrieve(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		return nil, nil
	}

	st, err := r.manager.Snapshot()
	if err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := st.Index.Search(vector.NormalizeL2(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	// Hits arrive sorted by ascending distance, which is descending
	// similarity; preserve that order.
	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			Entry: st.Corpus.Entry(hit.Row),
			Score: distanceToSimilarity(hit.Distance),
		}
	}
	return results, nil
}

// distanceToSimilarity converts a squared Euclidean distance between unit
// vectors into cosine similarity clipped to [0,1]: the distance equals
// 2(1 - cos theta), so 1 - d/2 recovers cos theta.
func distanceToSimilarity(distance float32) float64 {
	sim := 1 - float64(distance)/2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
