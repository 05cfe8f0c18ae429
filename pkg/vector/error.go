package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length does not
	// match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorrupt is returned when persisted index bytes cannot be decoded.
	ErrCorrupt = errors.New("corrupt index data")
)
