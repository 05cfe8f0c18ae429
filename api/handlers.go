package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/studyloop/satchel/pkg/index"
	"github.com/studyloop/satchel/pkg/retrieval"
)

// SearchResponse is the JSON body returned by GET /v1/search.
type SearchResponse struct {
	Query    string             `json:"query"`
	Results  []retrieval.Result `json:"results"`
	Count    int                `json:"count"`
	Reranked bool               `json:"reranked"`
}

// ReindexResponse is the JSON body returned by POST /v1/reindex.
type ReindexResponse struct {
	VectorCount int    `json:"vector_count"`
	Fingerprint string `json:"fingerprint"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleSearch handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional): number of results to return
//   - rerank (optional, default false): run the two-stage rerank pipeline
//   - candidates (optional): rerank candidate pool size
//   - min_score (optional): minimum similarity; ignored when reranking
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	defaults := s.engine.Config().Retrieval

	topK := int(defaults.TopK)
	if raw := c.Query("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	candidates := int(defaults.RerankCandidates)
	if raw := c.Query("candidates"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "candidates must be a positive integer",
			})
		}
		candidates = parsed
	}

	rerank := false
	if raw := c.Query("rerank"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "rerank must be a boolean",
			})
		}
		rerank = parsed
	}

	minScore := defaults.MinSimilarity
	if raw := c.Query("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "min_score must be a number between 0 and 1",
			})
		}
		minScore = parsed
	}

	var (
		results  []retrieval.Result
		reranked bool
		err      error
	)
	switch {
	case rerank:
		results, reranked, err = s.engine.Pipeline().RetrieveWithReranking(c.Context(), query, candidates, topK)
	case minScore > 0:
		results, err = s.engine.Pipeline().Retriever().RetrieveWithThreshold(c.Context(), query, topK, minScore)
	default:
		results, err = s.engine.Pipeline().Retriever().Retrieve(c.Context(), query, topK)
	}
	if err != nil {
		if errors.Is(err, index.ErrNotInitialized) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
				Error: "index is not initialized",
			})
		}
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	if results == nil {
		results = []retrieval.Result{}
	}
	return c.JSON(SearchResponse{
		Query:    query,
		Results:  results,
		Count:    len(results),
		Reranked: reranked,
	})
}

// handleStats returns the engine's retrieval statistics.
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.engine.Pipeline().Stats())
}

// handleReindex reloads the corpus from its source and rebuilds the index.
func (s *Server) handleReindex(c *fiber.Ctx) error {
	if err := s.engine.Manager().Refresh(c.Context()); err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	st, err := s.engine.Manager().Snapshot()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "index is not initialized",
		})
	}

	return c.JSON(ReindexResponse{
		VectorCount: st.Index.Len(),
		Fingerprint: st.Fingerprint,
	})
}
