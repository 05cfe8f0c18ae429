// Package rerank defines the reranking capability: a cross-encoder style
// scorer that judges (query, candidate text) pairs jointly. Rerankers emit
// raw, unbounded relevance scores; normalization into [0,1] is the
// retrieval pipeline's job, since different backends use different scales.
package rerank

import (
	"context"
	"errors"
)

// ErrRerank is returned when the reranking capability fails to score.
var ErrRerank = errors.New("rerank failed")

// Reranker scores candidate texts against a query with a cross-encoder
// model. Implementations must be deterministic for fixed inputs and model
// version.
type Reranker interface {
	// Score returns the raw relevance score for one (query, text) pair.
	Score(ctx context.Context, query, text string) (float64, error)

	// ScoreAll returns one raw score per candidate text, in input order.
	// An empty candidate list is a no-op and returns no scores.
	ScoreAll(ctx context.Context, query string, texts []string) ([]float64, error)

	// ModelName identifies the cross-encoder model in use.
	ModelName() string

	// MaxLength is the maximum pair input length, in model tokens, that
	// the backend accepts.
	MaxLength() int

	// Close releases any resources held by the reranker.
	Close() error
}
