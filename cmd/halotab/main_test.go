package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/halotab/internal/catalog"
	"github.com/banshee-data/halotab/internal/tabulate"
)

func writeTestCatalogCSV(t *testing.T, nHalos int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(13))
	path := filepath.Join(t.TempDir(), "halos.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	fmt.Fprintln(f, "halo_id,halo_pid,prim,sec,x,y,z,vx,vy,vz")
	for i := 0; i < nHalos; i++ {
		fmt.Fprintf(f, "%d,-1,%g,%g,%g,%g,%g,0,0,%g\n",
			i+1,
			math.Pow(10, 12+1.5*rng.Float64()),
			rng.Float64(),
			250*rng.Float64(), 250*rng.Float64(), 250*rng.Float64(),
			100*rng.NormFloat64())
	}
	return path
}

func TestLoadHaloCatalog(t *testing.T) {
	path := writeTestCatalogCSV(t, 25)
	cat, err := loadHaloCatalog(path, "box", 0.5, 1e9, [3]float64{250, 250, 250})
	require.NoError(t, err)
	assert.Equal(t, 25, cat.Halos.Len())
	assert.Equal(t, "box", cat.SimName)
	assert.Equal(t, int64(1), cat.Halos.ID[0])
	assert.Equal(t, int64(catalog.HostSentinel), cat.Halos.PID[0])

	t.Run("bad header", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(bad, []byte("id,mass\n1,1e12\n"), 0o644))
		_, err := loadHaloCatalog(bad, "box", 0, 1e9, [3]float64{250, 250, 250})
		assert.Error(t, err)
	})

	t.Run("bad value", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(bad, []byte(
			"halo_id,halo_pid,prim,sec,x,y,z,vx,vy,vz\n1,-1,not-a-number,0,0,0,0,0,0,0\n"), 0o644))
		_, err := loadHaloCatalog(bad, "box", 0, 1e9, [3]float64{250, 250, 250})
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadHaloCatalog(filepath.Join(t.TempDir(), "nope.csv"), "box", 0, 1e9, [3]float64{1, 1, 1})
		assert.Error(t, err)
	})
}

func TestParseCSVFloats(t *testing.T) {
	got, err := parseCSVFloats("0.1, 1,10")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 1, 10}, got)

	_, err = parseCSVFloats("1,x")
	assert.Error(t, err)

	got, err = parseCSVFloats("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBinCenters(t *testing.T) {
	centers := binCenters([]float64{1, 4, 16})
	assert.InDelta(t, 2, centers[0], 1e-12)
	assert.InDelta(t, 8, centers[1], 1e-12)

	assert.Equal(t, []float64{3}, binCenters([]float64{3}))
}

func TestDemoTPCF(t *testing.T) {
	lbox := [3]float64{100, 100, 100}
	tpcf := demoTPCF(lbox)
	edges := []float64{0.5, 5, 50}
	req := tabulate.StatRequest{Args: [][]float64{edges}}

	t.Run("requires separation edges", func(t *testing.T) {
		_, err := tpcf([][3]float64{{0, 0, 0}}, nil, tabulate.StatRequest{})
		assert.Error(t, err)
	})

	t.Run("uniform sample is unclustered", func(t *testing.T) {
		rng := rand.New(rand.NewSource(999))
		sample := make([][3]float64, 600)
		for i := range sample {
			sample[i] = [3]float64{100 * rng.Float64(), 100 * rng.Float64(), 100 * rng.Float64()}
		}
		res, err := tpcf(sample, nil, req)
		require.NoError(t, err)
		require.Equal(t, []int{2}, res.Shape)
		// Poisson points give xi ~ 0 in well-populated shells.
		assert.InDelta(t, 0, res.Values[1], 0.1)
	})

	t.Run("pair at known separation", func(t *testing.T) {
		// Two points 2 apart: one DD pair in the first shell.
		res, err := tpcf([][3]float64{{0, 0, 0}, {2, 0, 0}}, nil, req)
		require.NoError(t, err)
		shell := 4 * math.Pi / 3 * (math.Pow(5, 3) - math.Pow(0.5, 3))
		want := 1/(shell/1e6) - 1
		assert.InDelta(t, want, res.Values[0], math.Abs(want)*1e-12)
	})

	t.Run("periodic wrap", func(t *testing.T) {
		// Points at opposite box edges are separation 2, not 98.
		d := shellDistance([3]float64{1, 0, 0}, [3]float64{99, 0, 0}, lbox)
		assert.InDelta(t, 2, d, 1e-12)
	})

	t.Run("single galaxy yields zeros", func(t *testing.T) {
		res, err := tpcf([][3]float64{{1, 1, 1}}, nil, req)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, res.Values)
	})

	t.Run("cross pairs", func(t *testing.T) {
		res, err := tpcf(
			[][3]float64{{0, 0, 0}},
			[][3]float64{{2, 0, 0}, {3, 0, 0}},
			tabulate.StatRequest{Args: [][]float64{edges}, DoCross: true})
		require.NoError(t, err)
		shell := 4 * math.Pi / 3 * (math.Pow(5, 3) - math.Pow(0.5, 3))
		want := 2/(2*shell/1e6) - 1
		assert.InDelta(t, want, res.Values[0], math.Abs(want)*1e-12)
	})
}
