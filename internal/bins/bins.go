// Package bins partitions a halo population into discrete galaxy-type bins
// by log primary halo property and, optionally, by which side of a
// conditional secondary-property percentile split each halo falls on.
//
// The bin table is the backbone of a tabulation run: correlation-function
// contributions are tabulated once per bin pair and later recombined for
// arbitrary occupation models.
package bins

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// GalType tags a bin (or mock galaxy) as holding central or satellite
// galaxies.
type GalType int

const (
	Central GalType = iota
	Satellite
)

// String returns the catalog-convention name for the galaxy type.
func (g GalType) String() string {
	switch g {
	case Central:
		return "centrals"
	case Satellite:
		return "satellites"
	}
	return fmt.Sprintf("GalType(%d)", int(g))
}

// ParseGalType is the inverse of String.
func ParseGalType(s string) (GalType, error) {
	switch s {
	case "centrals":
		return Central, nil
	case "satellites":
		return Satellite, nil
	}
	return 0, fmt.Errorf("bins: unknown gal_type %q", s)
}

// PropertyBin is one primary-property interval of the bin table. Edges are
// base-10 logarithms of the primary halo property; the interval is half-open
// [LogPrimMin, LogPrimMax) except for the last bin, which also includes its
// upper edge.
type PropertyBin struct {
	LogPrimMin float64
	LogPrimMax float64

	// PrimHaloprop is the representative linear property value for the bin,
	// the geometric mean of the two edges.
	PrimHaloprop float64

	// NH is the number density of qualifying host halos in the bin, in
	// halos per unit simulation volume. It is a halo density: satellite
	// bins share it with the central bin of the same interval.
	NH float64

	// Sec is 0 for the below-split secondary-percentile side, 1 for the
	// at-or-above side. Always 0 when no secondary split is in use.
	Sec int
}

// GalTypeTable is the bin table for one tabulation run. It holds a single
// partition of property bins; the logical table is that partition tiled
// twice, centrals first, then satellites. The tiling is implicit so the
// invariant that both galaxy types share edges and halo densities cannot be
// broken row by row.
type GalTypeTable struct {
	Props []PropertyBin
}

// Len returns the number of logical bin rows (both galaxy types).
func (t *GalTypeTable) Len() int { return 2 * len(t.Props) }

// Row maps a logical row index to its galaxy type and property bin.
// Centrals occupy rows [0, len(Props)), satellites the rest.
func (t *GalTypeTable) Row(i int) (GalType, PropertyBin) {
	if i < len(t.Props) {
		return Central, t.Props[i]
	}
	return Satellite, t.Props[i-len(t.Props)]
}

// Options configures MakeBins.
type Options struct {
	// PrimHalopropBins is the number of logarithmic primary-property
	// intervals.
	PrimHalopropBins int

	// SecHaloprop enables splitting each interval by conditional
	// secondary-property percentile.
	SecHaloprop bool

	// SecHalopropSplit is the percentile threshold separating the two
	// secondary sides. Halos with percentile < split land on side 0.
	SecHalopropSplit float64
}

// MakeBins builds the bin table for an already filtered host-halo sample.
// prim holds the primary property per halo, percentiles the conditional
// secondary percentiles (ignored unless opts.SecHaloprop), and volume the
// simulation volume used to convert counts into densities.
//
// A zero-length prim yields a zero-row table, not an error; downstream
// tabulation degrades to empty matrices.
func MakeBins(prim, percentiles []float64, volume float64, opts Options) *GalTypeTable {
	t := &GalTypeTable{}
	if len(prim) == 0 || opts.PrimHalopropBins < 1 {
		return t
	}

	logPrim := make([]float64, len(prim))
	for i, p := range prim {
		logPrim[i] = math.Log10(p)
	}
	edges := logEdges(floats.Min(logPrim), floats.Max(logPrim), opts.PrimHalopropBins)

	if opts.SecHaloprop {
		var lo, hi []float64
		for i, lp := range logPrim {
			if percentiles[i] < opts.SecHalopropSplit {
				lo = append(lo, lp)
			} else {
				hi = append(hi, lp)
			}
		}
		t.Props = append(
			propsFromHistogram(edges, histogram(lo, edges), volume, 0),
			propsFromHistogram(edges, histogram(hi, edges), volume, 1)...)
	} else {
		t.Props = propsFromHistogram(edges, histogram(logPrim, edges), volume, 0)
	}
	return t
}

// logEdges returns n+1 evenly spaced edges covering [lo, hi].
func logEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	floats.Span(edges, lo, hi)
	return edges
}

// histogram counts values per interval. Intervals are half-open [e_k, e_k+1)
// with the final interval closed at hi, matching the edge convention of the
// bin table.
func histogram(xs, edges []float64) []int64 {
	counts := make([]int64, len(edges)-1)
	lo, hi := edges[0], edges[len(edges)-1]
	width := (hi - lo) / float64(len(counts))
	if width <= 0 {
		// Degenerate range: every value sits on the single shared edge.
		counts[0] = int64(len(xs))
		return counts
	}
	for _, x := range xs {
		if x < lo || x > hi {
			continue
		}
		k := int((x - lo) / width)
		if k == len(counts) {
			k--
		}
		counts[k]++
	}
	return counts
}

func propsFromHistogram(edges []float64, counts []int64, volume float64, sec int) []PropertyBin {
	props := make([]PropertyBin, len(counts))
	for k, c := range counts {
		props[k] = PropertyBin{
			LogPrimMin:   edges[k],
			LogPrimMax:   edges[k+1],
			PrimHaloprop: math.Pow(10, 0.5*(edges[k]+edges[k+1])),
			NH:           float64(c) / volume,
			Sec:          sec,
		}
	}
	return props
}

// Row is one fully expanded logical bin row, used at the persistence
// boundary where the table is stored flat.
type Row struct {
	GalType GalType
	PropertyBin
}

// Rows expands the table into its flat row form, centrals first.
func (t *GalTypeTable) Rows() []Row {
	rows := make([]Row, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		g, p := t.Row(i)
		rows = append(rows, Row{GalType: g, PropertyBin: p})
	}
	return rows
}

// FromRows rebuilds a table from its flat row form, validating that the
// satellite half exactly tiles the central half.
func FromRows(rows []Row) (*GalTypeTable, error) {
	if len(rows)%2 != 0 {
		return nil, fmt.Errorf("bins: odd row count %d", len(rows))
	}
	n := len(rows) / 2
	t := &GalTypeTable{Props: make([]PropertyBin, n)}
	for k := 0; k < n; k++ {
		if rows[k].GalType != Central || rows[n+k].GalType != Satellite {
			return nil, fmt.Errorf("bins: row %d: gal_type order is not centrals-then-satellites", k)
		}
		if rows[k].PropertyBin != rows[n+k].PropertyBin {
			return nil, fmt.Errorf("bins: row %d: satellite bin does not tile its central bin", k)
		}
		t.Props[k] = rows[k].PropertyBin
	}
	return t, nil
}
