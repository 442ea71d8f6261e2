// Package cosmology provides the flat ΛCDM background quantities needed to
// map peculiar velocities into redshift-space position distortions. Distances
// are comoving Mpc/h, velocities km/s.
package cosmology

import "math"

// FlatLCDM is a flat Λ cold dark matter cosmology. H0 is expressed in
// h-scaled units (km/s per Mpc/h), so 100 corresponds to any Hubble constant
// once distances carry the h.
type FlatLCDM struct {
	H0     float64
	OmegaM float64
}

// Planck15 is the default cosmology, matter density from the Planck 2015
// release.
var Planck15 = FlatLCDM{H0: 100, OmegaM: 0.3089}

// E returns the dimensionless Hubble function E(z) = H(z)/H0.
func (c FlatLCDM) E(z float64) float64 {
	a := 1 + z
	return math.Sqrt(c.OmegaM*a*a*a + (1 - c.OmegaM))
}

// Hubble returns H(z) in km/s per Mpc/h.
func (c FlatLCDM) Hubble(z float64) float64 {
	return c.H0 * c.E(z)
}

// ComovingDistortion returns the comoving line-of-sight displacement, in
// Mpc/h, of an object with peculiar velocity vLos km/s at redshift z.
func (c FlatLCDM) ComovingDistortion(vLos, z float64) float64 {
	return vLos * (1 + z) / c.Hubble(z)
}

// FormatOptions configures FormatXYZ.
type FormatOptions struct {
	// Period is the simulation box size per axis; positions are wrapped
	// into [0, Period).
	Period [3]float64

	// Redshift of the snapshot, used for the distortion factor.
	Redshift float64

	// RSD applies redshift-space distortions along the z axis.
	RSD bool

	Cosmology FlatLCDM
}

// FormatXYZ assembles per-object comoving positions. When opts.RSD is set,
// each object's z coordinate is displaced by its line-of-sight peculiar
// velocity and wrapped back into the periodic box; otherwise vz is ignored.
func FormatXYZ(x, y, z, vz []float64, opts FormatOptions) [][3]float64 {
	pos := make([][3]float64, len(x))
	for i := range pos {
		pos[i] = [3]float64{x[i], y[i], z[i]}
		if opts.RSD {
			pos[i][2] = wrap(z[i]+opts.Cosmology.ComovingDistortion(vz[i], opts.Redshift), opts.Period[2])
		}
	}
	return pos
}

// wrap maps v into [0, period). A zero period disables wrapping.
func wrap(v, period float64) float64 {
	if period <= 0 {
		return v
	}
	v = math.Mod(v, period)
	if v < 0 {
		v += period
	}
	return v
}
