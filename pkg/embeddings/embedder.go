// Package embeddings
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedding is returned when embedding generation fails.
var ErrEmbedding = errors.New("embedding failed")

// Embedder provides text embedding capabilities. Implementations must be
// deterministic for a fixed input and model version; the model name takes
// part in index fingerprinting.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts texts into one embedding per input, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the embedding model in use.
	ModelName() string

	// Close releases any resources held by the embedder.
	Close() error
}
