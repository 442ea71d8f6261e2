package cosmology

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE(t *testing.T) {
	c := FlatLCDM{H0: 100, OmegaM: 0.3}
	assert.InDelta(t, 1.0, c.E(0), 1e-12)

	// E(1) = sqrt(0.3*8 + 0.7)
	assert.InDelta(t, math.Sqrt(3.1), c.E(1), 1e-12)
	assert.Equal(t, 100*c.E(1), c.Hubble(1))
}

func TestComovingDistortion(t *testing.T) {
	c := FlatLCDM{H0: 100, OmegaM: 0.3}

	// At z=0 with H=100 km/s/(Mpc/h), 100 km/s displaces by 1 Mpc/h.
	assert.InDelta(t, 1.0, c.ComovingDistortion(100, 0), 1e-12)

	// The (1+z)/E(z) factor.
	want := 100 * (1 + 1.0) / c.Hubble(1)
	assert.InDelta(t, want, c.ComovingDistortion(100, 1), 1e-12)

	// Negative velocities displace toward the observer.
	assert.InDelta(t, -1.0, c.ComovingDistortion(-100, 0), 1e-12)
}

func TestFormatXYZ(t *testing.T) {
	x := []float64{10, 20}
	y := []float64{30, 40}
	z := []float64{50, 99}
	vz := []float64{100, 200}

	t.Run("real space ignores velocity", func(t *testing.T) {
		pos := FormatXYZ(x, y, z, vz, FormatOptions{Period: [3]float64{100, 100, 100}})
		assert.Equal(t, [3]float64{10, 30, 50}, pos[0])
		assert.Equal(t, [3]float64{20, 40, 99}, pos[1])
	})

	t.Run("redshift space displaces and wraps", func(t *testing.T) {
		opts := FormatOptions{
			Period:    [3]float64{100, 100, 100},
			Redshift:  0,
			RSD:       true,
			Cosmology: FlatLCDM{H0: 100, OmegaM: 0.3},
		}
		pos := FormatXYZ(x, y, z, vz, opts)
		assert.InDelta(t, 51.0, pos[0][2], 1e-12)
		// 99 + 2 wraps around the box.
		assert.InDelta(t, 1.0, pos[1][2], 1e-12)
		// x and y are untouched.
		assert.Equal(t, 10.0, pos[0][0])
		assert.Equal(t, 30.0, pos[0][1])
	})
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 5.0, wrap(105, 100))
	assert.Equal(t, 95.0, wrap(-5, 100))
	assert.Equal(t, -5.0, wrap(-5, 0))
}
