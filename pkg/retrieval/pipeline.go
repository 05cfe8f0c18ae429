package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/rerank"
)

// Fusion weights for the final relevance score. Rerank dominates because
// the cross-encoder sees the query and candidate together; the similarity
// term keeps embedding-space agreement as a tiebreaker.
const (
	rerankWeight     = 0.7
	similarityWeight = 0.3
)

// Pipeline composes stage-1 similarity retrieval with optional stage-2
// cross-encoder reranking.
type Pipeline struct {
	retriever *Retriever
	reranker  rerank.Reranker
	logger    *zap.Logger
}

// NewPipeline creates a two-stage pipeline. A nil reranker is permitted:
// the pipeline then degrades to plain similarity retrieval and flags the
// degradation to callers.
func NewPipeline(retriever *Retriever, reranker rerank.Reranker, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		retriever: retriever,
		reranker:  reranker,
		logger:    logger,
	}
}

// Retriever returns the stage-1 retriever the pipeline wraps.
func (p *Pipeline) Retriever() *Retriever {
	return p.retriever
}

// RetrieveWithReranking fetches candidateK similarity candidates, rescores
// them with the reranker, and returns the top finalK by fused score. The
// bool reports whether the two-stage path ran: false means the reranker is
// not configured and the results are plain stage-1 similarity.
//
// A blank query yields an empty result. candidateK is raised to finalK
// when callers pass a smaller shortlist than they want back.
func (p *Pipeline) RetrieveWithReranking(ctx context.Context, query string, candidateK, finalK int) ([]Result, bool, error) {
	if strings.TrimSpace(query) == "" {
		return nil, p.reranker != nil, nil
	}

	enriched := p.retriever.enrich(query)

	if p.reranker == nil {
		p.logger.Warn("reranker not configured, falling back to similarity retrieval",
			zap.String("query", query),
		)
		results, err := p.retriever.retrieve(ctx, enriched, finalK)
		return results, false, err
	}

	if candidateK < finalK {
		candidateK = finalK
	}

	candidates, err := p.retriever.retrieve(ctx, enriched, candidateK)
	if err != nil {
		return nil, false, err
	}
	// Nothing to rescore with fewer than two candidates; a singleton's
	// fused score would not change its rank.
	if len(candidates) < 2 {
		return candidates, true, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Entry.RerankText()
	}

	raw, err := p.reranker.ScoreAll(ctx, enriched, texts)
	if err != nil {
		return nil, false, fmt.Errorf("reranking candidates: %w", err)
	}

	fused := make([]Result, len(candidates))
	for i, c := range candidates {
		fused[i] = Result{
			Entry: c.Entry,
			Score: rerankWeight*logistic(raw[i]) + similarityWeight*c.Score,
		}
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	if len(fused) > finalK {
		fused = fused[:finalK]
	}
	return fused, true, nil
}

// logistic squashes an unbounded cross-encoder logit into (0,1).
func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
