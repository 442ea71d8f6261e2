package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/halotab/internal/bins"
	"github.com/banshee-data/halotab/internal/tabulate"
)

func testTabCorr() *tabulate.TabCorr {
	table := &bins.GalTypeTable{Props: []bins.PropertyBin{
		{LogPrimMin: 12, LogPrimMax: 13, PrimHaloprop: 3e12, NH: 1e-4},
		{LogPrimMin: 13, LogPrimMax: 14, PrimHaloprop: 3e13, NH: 1e-5},
	}}
	n := table.Len()
	matrix := make([]float64, 2*n*n)
	// Only the (0,0) pair carries values; everything else was skipped.
	matrix[0] = 1.5
	matrix[n*n] = 2.5
	return &tabulate.TabCorr{
		Bins:         table,
		Matrix:       matrix,
		Shape:        []int{2},
		Attrs:        tabulate.Attrs{Mode: tabulate.ModeAuto, RunID: "run-7"},
		SkippedPairs: 9,
	}
}

func TestCoverageHeatmap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CoverageHeatmap(testTabCorr(), &buf))

	html := buf.String()
	assert.Contains(t, html, "tabulation coverage")
	assert.Contains(t, html, "run-7")
	assert.Contains(t, html, "9 pairs skipped")
	assert.Contains(t, html, "centrals 0")
	assert.Contains(t, html, "satellites 1")
}

func TestCoverageHeatmapCrossMode(t *testing.T) {
	tc := testTabCorr()
	tc.Attrs.Mode = tabulate.ModeCross
	tc.Matrix = tc.Matrix[:2*tc.Bins.Len()]

	var buf bytes.Buffer
	require.NoError(t, CoverageHeatmap(tc, &buf))
	assert.Contains(t, buf.String(), "external sample")
}

func TestCoverageHeatmapEmpty(t *testing.T) {
	tc := &tabulate.TabCorr{Bins: &bins.GalTypeTable{}}
	assert.Error(t, CoverageHeatmap(tc, &bytes.Buffer{}))
}

func TestPlotXi(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xi.png")
	rbins := []float64{0.1, 0.3, 1, 3, 10}
	xi := []float64{120, 30, 4, 0.5, -0.01}
	require.NoError(t, PlotXi(rbins, xi, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotXiMismatch(t *testing.T) {
	assert.Error(t, PlotXi([]float64{1, 2}, []float64{1}, "unused.png"))
	assert.Error(t, PlotXi(nil, nil, "unused.png"))
}
