package catalog

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// PercentileBinWidth is the width, in dex, of the primary-property bins used
// to condition secondary percentiles.
const PercentileBinWidth = 0.05

// ConditionalPercentiles ranks each halo's secondary property against the
// other halos in its primary-property bin, returning per-halo percentiles in
// [0, 1). Conditioning bins are PercentileBinWidth dex wide across the
// observed primary range, so the percentile measures "high or low secondary
// property for a halo of this size" rather than a global rank.
func ConditionalPercentiles(prim, sec []float64) []float64 {
	out := make([]float64, len(prim))
	if len(prim) == 0 {
		return out
	}

	logPrim := make([]float64, len(prim))
	for i, p := range prim {
		logPrim[i] = math.Log10(p)
	}
	lo := floats.Min(logPrim)
	hi := floats.Max(logPrim)
	nBins := int((hi-lo)/PercentileBinWidth) + 1

	members := make([][]int, nBins)
	for i, lp := range logPrim {
		k := int((lp - lo) / PercentileBinWidth)
		if k >= nBins {
			k = nBins - 1
		}
		members[k] = append(members[k], i)
	}

	for _, idx := range members {
		if len(idx) == 0 {
			continue
		}
		sort.Slice(idx, func(a, b int) bool { return sec[idx[a]] < sec[idx[b]] })
		for rank, i := range idx {
			out[i] = float64(rank) / float64(len(idx))
		}
	}
	return out
}
