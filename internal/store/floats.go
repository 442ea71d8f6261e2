package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeFloats packs a float64 slice into a little-endian blob.
func encodeFloats(xs []float64) []byte {
	buf := make([]byte, 8*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return buf
}

// decodeFloats is the inverse of encodeFloats. Empty blobs decode to nil.
func decodeFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("float blob length %d is not a multiple of 8", len(buf))
	}
	if len(buf) == 0 {
		return nil, nil
	}
	xs := make([]float64, len(buf)/8)
	for i := range xs {
		xs[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return xs, nil
}
