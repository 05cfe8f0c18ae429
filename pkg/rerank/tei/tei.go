// Package tei implements pkg/rerank's Reranker client for servers speaking
// the text-embeddings-inference rerank API (POST /rerank).
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/studyloop/satchel/pkg/rerank"
)

const (
	// DefaultModel is the default cross-encoder model identifier.
	DefaultModel = "cross-encoder/ms-marco-MiniLM-L-6-v2"

	// DefaultBaseURL is the default rerank server URL.
	DefaultBaseURL = "http://localhost:8082"

	// DefaultMaxLength is the default maximum pair input length in tokens.
	DefaultMaxLength = 512
)

// Reranker wraps a text-embeddings-inference style rerank endpoint.
type Reranker struct {
	baseURL    string
	model      string
	maxLength  int
	httpClient *http.Client
}

// Config holds configuration for the rerank client.
type Config struct {
	// BaseURL is the rerank server URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model identifies the cross-encoder served at BaseURL.
	// Defaults to DefaultModel if empty.
	Model string

	// MaxLength is the maximum pair input length in tokens.
	// Defaults to DefaultMaxLength if zero.
	MaxLength int
}

// rerankRequest is the request body for the rerank API. RawScores asks the
// server for unnormalized logits so score squashing stays in one place.
type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

// rerankResult is one scored candidate in the rerank API response.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewReranker creates a new rerank client.
func NewReranker(cfg Config) (*Reranker, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = DefaultMaxLength
	}

	return &Reranker{
		baseURL:   baseURL,
		model:     model,
		maxLength: maxLength,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Score returns the raw relevance score for one (query, text) pair.
func (r *Reranker) Score(ctx context.Context, query, text string) (float64, error) {
	scores, err := r.ScoreAll(ctx, query, []string{text})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// ScoreAll returns one raw score per candidate text, in input order.
func (r *Reranker) ScoreAll(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := rerankRequest{
		Query:     query,
		Texts:     texts,
		RawScores: true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", rerank.ErrRerank, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", rerank.ErrRerank, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", rerank.ErrRerank, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: server returned status %d: %s", rerank.ErrRerank, resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", rerank.ErrRerank, err)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf("%w: got %d scores for %d candidates", rerank.ErrRerank, len(results), len(texts))
	}

	// The server returns results sorted by score; restore input order.
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	scores := make([]float64, len(texts))
	for i, res := range results {
		if res.Index != i {
			return nil, fmt.Errorf("%w: response index %d out of range", rerank.ErrRerank, res.Index)
		}
		scores[i] = res.Score
	}
	return scores, nil
}

// ModelName identifies the cross-encoder model in use.
func (r *Reranker) ModelName() string {
	return r.model
}

// MaxLength is the maximum pair input length in tokens.
func (r *Reranker) MaxLength() int {
	return r.maxLength
}

// Close releases resources held by the reranker.
func (r *Reranker) Close() error {
	return nil
}

// Ensure Reranker implements rerank.Reranker
var _ rerank.Reranker = (*Reranker)(nil)
