// Package catalog holds the columnar halo and mock-galaxy tables a
// tabulation run consumes, plus the filtering, crossmatching and
// conditional-percentile routines that prepare them.
package catalog

import (
	"github.com/banshee-data/halotab/internal/bins"
)

// HostSentinel is the parent-halo id marking a host (top-level) halo.
const HostSentinel = -1

// HaloTable is a columnar halo catalog. All slices share one length.
type HaloTable struct {
	ID   []int64
	PID  []int64
	Prim []float64 // primary halo property (e.g. virial mass)
	Sec  []float64 // secondary halo property (e.g. concentration)

	X, Y, Z    []float64
	VX, VY, VZ []float64
}

// Len returns the number of halos in the table.
func (t *HaloTable) Len() int { return len(t.ID) }

// Select returns a new table holding the rows where keep is true.
func (t *HaloTable) Select(keep []bool) *HaloTable {
	out := &HaloTable{}
	for i, k := range keep {
		if !k {
			continue
		}
		out.ID = append(out.ID, t.ID[i])
		out.PID = append(out.PID, t.PID[i])
		out.Prim = append(out.Prim, t.Prim[i])
		out.Sec = append(out.Sec, t.Sec[i])
		out.X = append(out.X, t.X[i])
		out.Y = append(out.Y, t.Y[i])
		out.Z = append(out.Z, t.Z[i])
		out.VX = append(out.VX, t.VX[i])
		out.VY = append(out.VY, t.VY[i])
		out.VZ = append(out.VZ, t.VZ[i])
	}
	return out
}

// SelectHosts returns the sub-table of host halos, excluding subhalos.
func (t *HaloTable) SelectHosts() *HaloTable {
	keep := make([]bool, t.Len())
	for i, pid := range t.PID {
		keep[i] = pid == HostSentinel
	}
	return t.Select(keep)
}

// SelectMinPrim returns the sub-table of halos with primary property at or
// above min.
func (t *HaloTable) SelectMinPrim(min float64) *HaloTable {
	keep := make([]bool, t.Len())
	for i, p := range t.Prim {
		keep[i] = p >= min
	}
	return t.Select(keep)
}

// HaloCatalog couples a halo table with the simulation context needed for
// densities and redshift-space positions.
type HaloCatalog struct {
	SimName      string
	Redshift     float64
	ParticleMass float64
	Lbox         [3]float64
	Halos        *HaloTable
}

// Volume returns the simulation box volume.
func (c *HaloCatalog) Volume() float64 {
	return c.Lbox[0] * c.Lbox[1] * c.Lbox[2]
}

// GalaxyTable is a columnar mock-galaxy table as produced by populating an
// occupation model on a halo catalog.
type GalaxyTable struct {
	HaloID  []int64
	GalType []bins.GalType
	Prim    []float64 // parent halo primary property

	X, Y, Z    []float64
	VX, VY, VZ []float64

	// SecPercentile is the parent halo's conditional secondary percentile,
	// filled in by crossmatching against the halo table.
	SecPercentile []float64
}

// Len returns the number of galaxies in the table.
func (t *GalaxyTable) Len() int { return len(t.HaloID) }

// Select returns a new table holding the rows where keep is true.
func (t *GalaxyTable) Select(keep []bool) *GalaxyTable {
	out := &GalaxyTable{}
	for i, k := range keep {
		if !k {
			continue
		}
		out.HaloID = append(out.HaloID, t.HaloID[i])
		out.GalType = append(out.GalType, t.GalType[i])
		out.Prim = append(out.Prim, t.Prim[i])
		out.X = append(out.X, t.X[i])
		out.Y = append(out.Y, t.Y[i])
		out.Z = append(out.Z, t.Z[i])
		out.VX = append(out.VX, t.VX[i])
		out.VY = append(out.VY, t.VY[i])
		out.VZ = append(out.VZ, t.VZ[i])
		if t.SecPercentile != nil {
			out.SecPercentile = append(out.SecPercentile, t.SecPercentile[i])
		}
	}
	return out
}
