// Package report renders diagnostics for tabulation bundles: a bin-pair
// coverage heatmap showing which matrix cells were actually tabulated, and a
// quick plot of a predicted correlation function.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/halotab/internal/tabulate"
)

// CoverageHeatmap writes an HTML heatmap of which bin pairs carry tabulated
// values. Cells are 1 where any statistic element is non-zero and 0 where
// the pair was skipped (or tabulated to an exactly zero contribution, which
// the matrix cannot distinguish).
func CoverageHeatmap(tc *tabulate.TabCorr, w io.Writer) error {
	n := tc.Bins.Len()
	if n == 0 {
		return fmt.Errorf("report: empty bin table")
	}

	labels := make([]string, n)
	for i := range labels {
		g, p := tc.Bins.Row(i)
		labels[i] = fmt.Sprintf("%s %d (sec %d)", g, i%len(tc.Bins.Props), p.Sec)
	}

	cols := n
	colLabels := labels
	if tc.Attrs.Mode == tabulate.ModeCross {
		cols = 1
		colLabels = []string{"external sample"}
	}

	data := make([]opts.HeatMapData, 0, n*cols)
	for i := 0; i < n; i++ {
		for j := 0; j < cols; j++ {
			v := 0
			if cellComputed(tc, i, j) {
				v = 1
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, v}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "tabulation coverage",
			Subtitle: fmt.Sprintf("run %s, %d pairs skipped", tc.Attrs.RunID, tc.SkippedPairs),
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: labels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
		}),
	)
	hm.SetXAxis(colLabels).AddSeries("computed", data)
	return hm.Render(w)
}

// cellComputed reports whether any statistic element of cell (i, j) holds a
// non-zero value.
func cellComputed(tc *tabulate.TabCorr, i, j int) bool {
	if len(tc.Matrix) == 0 {
		return false
	}
	for e := 0; e < tabulate.Flatlen(tc.Shape); e++ {
		if tc.MatrixAt(e, i, j) != 0 {
			return true
		}
	}
	return false
}
