package catalog

import (
	"errors"
	"fmt"
)

// ErrCrossmatch reports a failed galaxy-to-halo join: a galaxy references a
// halo id that is missing from, or duplicated in, the halo table.
var ErrCrossmatch = errors.New("catalog: halo id crossmatch failed")

// MatchIDs joins galaxy halo ids against halo ids, returning for each entry
// of gal the row index of its halo. Halo ids must be unique and every galaxy
// id must resolve; anything else is a join-integrity failure and surfaces as
// ErrCrossmatch immediately.
func MatchIDs(gal, halo []int64) ([]int, error) {
	byID := make(map[int64]int, len(halo))
	for i, id := range halo {
		if prev, ok := byID[id]; ok {
			return nil, fmt.Errorf("%w: halo id %d duplicated at rows %d and %d",
				ErrCrossmatch, id, prev, i)
		}
		byID[id] = i
	}

	idx := make([]int, len(gal))
	for i, id := range gal {
		j, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: galaxy row %d references unknown halo id %d",
				ErrCrossmatch, i, id)
		}
		idx[i] = j
	}
	return idx, nil
}
