package testutils

import (
	"context"
	"strings"
)

// StubReranker is a test reranker with scripted raw scores. Candidate texts
// containing a key from Scores get that score; everything else gets
// Default.
type StubReranker struct {
	Scores  map[string]float64
	Default float64

	// Model overrides the reported model name.
	Model string

	// Err, when set, is returned from every scoring call.
	Err error

	// Calls counts ScoreAll invocations (Score delegates to ScoreAll).
	Calls int
}

func NewStubReranker() *StubReranker {
	return &StubReranker{
		Scores: make(map[string]float64),
	}
}

func (s *StubReranker) Score(ctx context.Context, query, text string) (float64, error) {
	scores, err := s.ScoreAll(ctx, query, []string{text})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

func (s *StubReranker) ScoreAll(_ context.Context, _ string, texts []string) ([]float64, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([]float64, len(texts))
	for i, text := range texts {
		out[i] = s.Default
		for key, score := range s.Scores {
			if strings.Contains(text, key) {
				out[i] = score
				break
			}
		}
	}
	return out, nil
}

func (s *StubReranker) ModelName() string {
	if s.Model != "" {
		return s.Model
	}
	return "stub-reranker"
}

func (s *StubReranker) MaxLength() int {
	return 512
}

func (s *StubReranker) Close() error {
	return nil
}

// StubEnricher is a test query enricher that appends a fixed suffix.
type StubEnricher struct {
	Suffix string
	Calls  int
}

func (s *StubEnricher) Enrich(query string) string {
	s.Calls++
	return query + s.Suffix
}

func (s *StubEnricher) Name() string {
	return "stub-enricher"
}
