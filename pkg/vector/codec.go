package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes the index vectors as little-endian float32 bytes in row
// order. Dimension and row count travel separately in the persisted
// metadata record.
func (ix *Index) Encode() []byte {
	out := make([]byte, len(ix.data)*4)
	for i, v := range ix.data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// DecodeIndex rebuilds an index from Encode output. The byte length must
// match rows*dim exactly; anything else is treated as corruption.
func DecodeIndex(data []byte, rows, dim int) (*Index, error) {
	if rows < 0 || dim < 0 {
		return nil, fmt.Errorf("%w: negative shape %dx%d", ErrCorrupt, rows, dim)
	}
	if rows == 0 || dim == 0 {
		if len(data) != 0 {
			return nil, fmt.Errorf("%w: %d bytes for empty shape", ErrCorrupt, len(data))
		}
		return NewIndex(dim), nil
	}

	expected := rows * dim * 4
	if len(data) != expected {
		return nil, fmt.Errorf("%w: got %d bytes, want %d (rows=%d dim=%d)", ErrCorrupt, len(data), expected, rows, dim)
	}

	ix := NewIndex(dim)
	ix.data = make([]float32, rows*dim)
	for i := range ix.data {
		ix.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return ix, nil
}
