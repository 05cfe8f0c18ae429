package testutils

import (
	"context"
	"fmt"
	"hash/fnv"
)

// StubEmbedder is a test embedder that returns predictable embeddings.
// Texts present in Embeddings get their configured vector; anything else
// gets a deterministic vector derived from the text hash, so distinct
// texts map to distinct directions without any fixture setup.
type StubEmbedder struct {
	Embeddings map[string][]float32

	// Model overrides the reported model name.
	Model string

	// Dim is the dimension of derived vectors (default 3).
	Dim int

	// FailOn causes Embed/EmbedBatch to return an error when an input
	// text matches.
	FailOn string

	// BatchCalls counts EmbedBatch invocations.
	BatchCalls int
}

func NewStubEmbedder() *StubEmbedder {
	return &StubEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (s *StubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.FailOn != "" && text == s.FailOn {
		return nil, fmt.Errorf("stub embedding failure for: %s", text)
	}

	if emb, ok := s.Embeddings[text]; ok {
		return emb, nil
	}

	return s.derive(text), nil
}

func (s *StubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.BatchCalls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *StubEmbedder) ModelName() string {
	if s.Model != "" {
		return s.Model
	}
	return "stub-embedder"
}

func (s *StubEmbedder) Close() error {
	return nil
}

func (s *StubEmbedder) derive(text string) []float32 {
	dim := s.Dim
	if dim <= 0 {
		dim = 3
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%1000)/1000.0 + 0.001
	}
	return vec
}
