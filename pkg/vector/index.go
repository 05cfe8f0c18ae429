// Package vector provides the in-memory flat vector index used for
// nearest-neighbor search over corpus embeddings. Rows are expected to be
// L2-normalized; under that assumption the squared Euclidean distance
// returned by Search equals 2(1 - cos theta), so callers can recover cosine
// similarity from it directly.
package vector

import (
	"fmt"
	"math"
	"sort"
)

// Hit is a single nearest-neighbor match: the index row and its squared
// Euclidean distance to the query.
type Hit struct {
	Row      int
	Distance float32
}

// Index is a flat, row-major matrix of embedding vectors. It is built once
// and treated as read-only by searches; a rebuilt index replaces the old
// one wholesale rather than being mutated in place.
type Index struct {
	dim  int
	data []float32
}

// NewIndex creates an empty index with the given dimension. A zero
// dimension is permitted for an empty corpus; such an index accepts no rows
// and every search returns no hits.
func NewIndex(dim int) *Index {
	if dim < 0 {
		dim = 0
	}
	return &Index{dim: dim}
}

// NewIndexFromMatrix builds an index from a dense matrix. Every row must
// have the same length.
func NewIndexFromMatrix(matrix [][]float32) (*Index, error) {
	if len(matrix) == 0 {
		return NewIndex(0), nil
	}

	ix := NewIndex(len(matrix[0]))
	for i, row := range matrix {
		if err := ix.Add(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return ix, nil
}

// Len returns the number of vectors in the index.
func (ix *Index) Len() int {
	if ix.dim == 0 {
		return 0
	}
	return len(ix.data) / ix.dim
}

// Dim returns the vector dimension.
func (ix *Index) Dim() int {
	return ix.dim
}

// Row returns the vector at a row. The returned slice aliases the index
// storage and must not be modified.
func (ix *Index) Row(i int) []float32 {
	start := i * ix.dim
	return ix.data[start : start+ix.dim]
}

// Add appends a vector to the index.
func (ix *Index) Add(vec []float32) error {
	if len(vec) != ix.dim || ix.dim == 0 {
		return fmt.Errorf("%w: got %d, index dimension %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	ix.data = append(ix.data, vec...)
	return nil
}

// Search returns the k nearest rows to query by squared Euclidean distance,
// ascending. Ties keep row order. k is clamped to the row count; k <= 0 or
// an empty index yields no hits.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	n := ix.Len()
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index dimension %d", ErrDimensionMismatch, len(query), ix.dim)
	}
	if k > n {
		k = n
	}

	hits := make([]Hit, n)
	for row := range n {
		hits[row] = Hit{Row: row, Distance: squaredL2(ix.Row(row), query)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}

// NormalizeL2 returns a copy of v scaled to unit L2 norm. A zero vector is
// returned unchanged.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		out[i] = v[i] * inv
	}
	return out
}
