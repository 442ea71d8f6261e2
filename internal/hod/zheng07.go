// Package hod implements halo occupation distribution models: the mean
// central and satellite occupations used by the prediction engine, plus the
// fixed reference parameterisation and mock populator the tabulation phase
// samples galaxy positions with.
package hod

import (
	"math"
	"math/rand"

	"github.com/banshee-data/halotab/internal/bins"
	"github.com/banshee-data/halotab/internal/catalog"
)

// Zheng07 is the five-parameter occupation model of Zheng et al. (2007).
// Masses enter through their base-10 logarithms.
type Zheng07 struct {
	LogMmin   float64
	SigmaLogM float64
	LogM0     float64
	LogM1     float64
	Alpha     float64
}

// MeanCentrals returns the expected number of central galaxies for a halo
// with the given primary property. The secondary side is accepted for
// interface compatibility; Zheng07 carries no assembly bias and ignores it.
func (m Zheng07) MeanCentrals(prim, secSide float64) float64 {
	return 0.5 * (1 + math.Erf((math.Log10(prim)-m.LogMmin)/m.SigmaLogM))
}

// MeanSatellites returns the expected number of satellite galaxies. The
// satellite power law is modulated by the central occupation, so halos
// unlikely to host a central rarely host satellites either.
func (m Zheng07) MeanSatellites(prim, secSide float64) float64 {
	m0 := math.Pow(10, m.LogM0)
	if prim <= m0 {
		return 0
	}
	m1 := math.Pow(10, m.LogM1)
	return m.MeanCentrals(prim, secSide) * math.Pow((prim-m0)/m1, m.Alpha)
}

// ReferenceModel returns the broad, unbiased parameterisation used to draw
// the galaxy sample for tabulation. Every halo hosts a central
// (logMmin = 0 is far below any resolved halo) and satellites are sampled in
// proportion to the primary property, satsPerPrim expected satellites per
// unit of primary property.
func ReferenceModel(satsPerPrim float64) Zheng07 {
	return Zheng07{
		LogMmin:   0,
		SigmaLogM: 0.1,
		LogM0:     0,
		LogM1:     -math.Log10(satsPerPrim),
		Alpha:     1,
	}
}

// PopulateMock draws a mock galaxy table from the model over an already
// filtered host-halo table. Centrals are Bernoulli in the mean central
// occupation; satellite counts are Poisson in the mean satellite occupation.
// Galaxies sit at their halo's position and move with its velocity: the
// tabulation only needs halo-scale positions, intra-halo profiles are the
// mock library's concern.
func PopulateMock(halos *catalog.HaloTable, model Zheng07, seed int64) *catalog.GalaxyTable {
	rng := rand.New(rand.NewSource(seed))
	gals := &catalog.GalaxyTable{}

	emit := func(i int, g bins.GalType) {
		gals.HaloID = append(gals.HaloID, halos.ID[i])
		gals.GalType = append(gals.GalType, g)
		gals.Prim = append(gals.Prim, halos.Prim[i])
		gals.X = append(gals.X, halos.X[i])
		gals.Y = append(gals.Y, halos.Y[i])
		gals.Z = append(gals.Z, halos.Z[i])
		gals.VX = append(gals.VX, halos.VX[i])
		gals.VY = append(gals.VY, halos.VY[i])
		gals.VZ = append(gals.VZ, halos.VZ[i])
	}

	for i := 0; i < halos.Len(); i++ {
		if rng.Float64() < model.MeanCentrals(halos.Prim[i], 0) {
			emit(i, bins.Central)
		}
		n := poisson(rng, model.MeanSatellites(halos.Prim[i], 0))
		for k := 0; k < n; k++ {
			emit(i, bins.Satellite)
		}
	}
	return gals
}

// poisson draws from a Poisson distribution by inversion. Means here are
// order unity (satellites per halo), where inversion is exact and cheap.
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
