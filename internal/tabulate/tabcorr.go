// Package tabulate is the tabulation-and-prediction engine. It assigns a
// reference mock-galaxy sample to the bins of a bin table, tabulates a
// correlation-function matrix over bin pairs once, and reconstructs galaxy
// correlation functions for arbitrary occupation models as cheap weighted
// contractions of that matrix.
package tabulate

import (
	"fmt"

	"github.com/banshee-data/halotab/internal/bins"
)

// Tabulation modes.
const (
	ModeAuto  = "auto"  // auto-correlation: one matrix cell per bin pair
	ModeCross = "cross" // cross-correlation against a fixed external sample
)

// Result is a correlation-function value array: flattened values plus the
// original multi-dimensional shape, which is opaque to the engine but fixed
// across calls within one tabulation run.
type Result struct {
	Values []float64
	Shape  []int
}

// Flatlen returns the product of the shape extents.
func Flatlen(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// StatRequest carries the per-invocation statistic selection and the
// arguments recorded at tabulation time, forwarded verbatim to the
// correlation-function collaborator.
type StatRequest struct {
	// DoAuto and DoCross select which statistic an auto-mode invocation
	// computes. Diagonal cells request auto only, off-diagonal cells cross
	// only. Cross-mode tabulation leaves both unset.
	DoAuto  bool
	DoCross bool

	// Args are the positional numeric-array arguments (separation bin
	// edges and the like), keyed arg_0, arg_1, ... when persisted.
	Args [][]float64

	// KWArgs are the keyword arguments.
	KWArgs map[string]float64
}

// TPCF is the correlation-function collaborator: any callable taking one or
// two position samples and returning a fixed-shape numeric result. sample2
// is nil for single-sample invocations. Errors abort the tabulation run;
// there are no retries and no partial results.
type TPCF func(sample1, sample2 [][3]float64, req StatRequest) (*Result, error)

// Attrs is the immutable metadata describing how a tabulation was produced.
// Predictions are only meaningful against a bundle whose attrs match the
// caller's expectations; nothing validates this across sessions.
type Attrs struct {
	TPCFName           string
	Mode               string
	SimName            string
	Redshift           float64
	NumPtclRequirement float64
	PrimHalopropKey    string
	SecHaloprop        bool
	SecHalopropKey     string
	SecHalopropSplit   float64

	// RunID uniquely identifies the tabulation run that produced the
	// bundle.
	RunID string
}

// TabCorr holds one completed tabulation: the bin table, the tabulation
// matrix, the recorded callable arguments, and run metadata. It is read-only
// after Tabulate (or a bundle read) returns.
type TabCorr struct {
	Bins *bins.GalTypeTable

	// Matrix is the tabulation matrix, flattened. Auto mode lays it out as
	// (element, bin_i, bin_j) with the bin-pair block symmetric by
	// construction; cross mode as (element, bin_i).
	Matrix []float64

	// Shape is the original result shape of one callable invocation.
	Shape []int

	Attrs  Attrs
	Args   [][]float64
	KWArgs map[string]float64

	// SkippedPairs counts bin pairs (auto) or bins (cross) left as zero
	// because a position subset was empty. Zero cells mean "negligible",
	// not "unknown": pairs with too few galaxies to sample silently
	// contribute nothing.
	SkippedPairs int
}

// OccupationModel exposes the two mean-occupation evaluators the prediction
// engine contracts against the bin table. secSide is the secondary-split
// side indicator (0 or 1) and is only meaningful when the tabulation was
// split by secondary property.
type OccupationModel interface {
	MeanCentrals(prim, secSide float64) float64
	MeanSatellites(prim, secSide float64) float64
}

// matrixIndex addresses the flat tabulation matrix. The leading dimension is
// the flattened statistic element, then bin i, then (auto mode only) bin j.
func (tc *TabCorr) matrixIndex(e, i, j int) int {
	n := tc.Bins.Len()
	if tc.Attrs.Mode == ModeCross {
		return e*n + i
	}
	return (e*n+i)*n + j
}

// MatrixAt returns the matrix entry for statistic element e and bin pair
// (i, j). In cross mode j is ignored.
func (tc *TabCorr) MatrixAt(e, i, j int) float64 {
	return tc.Matrix[tc.matrixIndex(e, i, j)]
}

// validateMode rejects anything but the two supported tabulation modes.
func validateMode(mode string) error {
	if mode != ModeAuto && mode != ModeCross {
		return fmt.Errorf("tabulate: unknown mode %q", mode)
	}
	return nil
}
