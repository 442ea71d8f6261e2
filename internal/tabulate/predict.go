package tabulate

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/halotab/internal/bins"
)

// Predict evaluates an occupation model against the tabulation: the expected
// galaxy number density per bin, and the correlation function reconstructed
// as the density-weighted contraction of the tabulation matrix.
//
// It is a pure function of (bin table, matrix, model): no I/O, no mutation.
// A model with zero total density is not guarded against; the division
// propagates ±Inf/NaN into the returned statistic, which callers must treat
// as a degenerate model.
func (tc *TabCorr) Predict(model OccupationModel) (ngal []float64, xi *Result) {
	n := tc.Bins.Len()
	ngal = make([]float64, n)
	for i := 0; i < n; i++ {
		galType, prop := tc.Bins.Row(i)
		var occ float64
		if galType == bins.Central {
			occ = model.MeanCentrals(prop.PrimHaloprop, float64(prop.Sec))
		} else {
			occ = model.MeanSatellites(prop.PrimHaloprop, float64(prop.Sec))
		}
		ngal[i] = occ * prop.NH
	}

	if n == 0 || len(tc.Matrix) == 0 {
		// Nothing was tabulated; degrade to empty arrays.
		return ngal, &Result{Shape: tc.Shape}
	}

	k := Flatlen(tc.Shape)
	values := make([]float64, k)
	total := floats.Sum(ngal)

	if tc.Attrs.Mode == ModeAuto {
		// Per statistic element, the contraction is the quadratic form
		// n' M_e n over the bin-pair block, normalised by the squared
		// total density.
		v := mat.NewVecDense(n, ngal)
		for e := 0; e < k; e++ {
			block := mat.NewDense(n, n, tc.Matrix[e*n*n:(e+1)*n*n])
			values[e] = mat.Inner(v, block, v) / (total * total)
		}
	} else {
		for e := 0; e < k; e++ {
			values[e] = floats.Dot(tc.Matrix[e*n:(e+1)*n], ngal) / total
		}
	}

	return ngal, &Result{Values: values, Shape: tc.Shape}
}
