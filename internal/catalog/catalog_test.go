package catalog

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/halotab/internal/bins"
)

func testHalos() *HaloTable {
	return &HaloTable{
		ID:   []int64{1, 2, 3, 4, 5},
		PID:  []int64{HostSentinel, HostSentinel, 1, HostSentinel, 2},
		Prim: []float64{1e12, 5e12, 2e11, 3e13, 1e11},
		Sec:  []float64{5, 9, 1, 7, 3},
		X:    []float64{1, 2, 3, 4, 5},
		Y:    []float64{1, 2, 3, 4, 5},
		Z:    []float64{1, 2, 3, 4, 5},
		VX:   []float64{0, 0, 0, 0, 0},
		VY:   []float64{0, 0, 0, 0, 0},
		VZ:   []float64{10, -20, 30, -40, 50},
	}
}

func TestSelectHosts(t *testing.T) {
	hosts := testHalos().SelectHosts()
	assert.Equal(t, []int64{1, 2, 4}, hosts.ID)
	assert.Equal(t, []float64{1e12, 5e12, 3e13}, hosts.Prim)
}

func TestSelectMinPrim(t *testing.T) {
	cut := testHalos().SelectMinPrim(1e12)
	assert.Equal(t, []int64{1, 2, 4}, cut.ID)

	t.Run("threshold is inclusive", func(t *testing.T) {
		cut := testHalos().SelectMinPrim(3e13)
		assert.Equal(t, []int64{4}, cut.ID)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		cut := testHalos().SelectMinPrim(1e20)
		assert.Zero(t, cut.Len())
	})
}

func TestVolume(t *testing.T) {
	cat := &HaloCatalog{Lbox: [3]float64{250, 250, 500}}
	assert.Equal(t, 250.0*250.0*500.0, cat.Volume())
}

func TestMatchIDs(t *testing.T) {
	halo := []int64{10, 20, 30}

	t.Run("resolves all galaxies", func(t *testing.T) {
		idx, err := MatchIDs([]int64{30, 10, 10, 20}, halo)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 0, 0, 1}, idx)
	})

	t.Run("missing halo id fails", func(t *testing.T) {
		_, err := MatchIDs([]int64{10, 99}, halo)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCrossmatch))
	})

	t.Run("duplicate halo id fails", func(t *testing.T) {
		_, err := MatchIDs([]int64{10}, []int64{10, 20, 10})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCrossmatch))
	})
}

func TestConditionalPercentiles(t *testing.T) {
	t.Run("ranks within a single bin", func(t *testing.T) {
		// Identical primary property puts everything in one conditioning bin.
		prim := []float64{1e12, 1e12, 1e12, 1e12}
		sec := []float64{3, 1, 4, 2}
		p := ConditionalPercentiles(prim, sec)
		assert.Equal(t, []float64{0.5, 0, 0.75, 0.25}, p)
	})

	t.Run("percentiles span [0,1) per bin", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		n := 400
		prim := make([]float64, n)
		sec := make([]float64, n)
		for i := range prim {
			prim[i] = math.Pow(10, 11+2*rng.Float64())
			sec[i] = rng.NormFloat64()
		}
		p := ConditionalPercentiles(prim, sec)
		for i, v := range p {
			assert.GreaterOrEqual(t, v, 0.0, "halo %d", i)
			assert.Less(t, v, 1.0, "halo %d", i)
		}
	})

	t.Run("conditioning is local in primary property", func(t *testing.T) {
		// Two clusters of primary property far apart; secondary values are
		// chosen so a global rank would order them differently.
		prim := []float64{1e11, 1e11, 1e14, 1e14}
		sec := []float64{100, 200, 1, 2}
		p := ConditionalPercentiles(prim, sec)
		assert.Equal(t, []float64{0, 0.5, 0, 0.5}, p)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ConditionalPercentiles(nil, nil))
	})
}

func TestGalaxyTableSelect(t *testing.T) {
	g := &GalaxyTable{
		HaloID:  []int64{1, 2, 3},
		GalType: []bins.GalType{bins.Central, bins.Satellite, bins.Central},
		Prim:    []float64{1e12, 1e12, 5e12},
		X:       []float64{1, 2, 3},
		Y:       []float64{1, 2, 3},
		Z:       []float64{1, 2, 3},
		VX:      []float64{0, 0, 0},
		VY:      []float64{0, 0, 0},
		VZ:      []float64{5, 6, 7},
	}
	sub := g.Select([]bool{true, false, true})
	assert.Equal(t, []int64{1, 3}, sub.HaloID)
	assert.Equal(t, []bins.GalType{bins.Central, bins.Central}, sub.GalType)
	assert.Equal(t, []float64{5, 7}, sub.VZ)
}
