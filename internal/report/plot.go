package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotXi saves a PNG of a predicted correlation function against its
// separation bins. The separation axis is logarithmic; the value axis stays
// linear since correlation functions may go negative on large scales.
func PlotXi(rbins, xi []float64, path string) error {
	if len(rbins) != len(xi) {
		return fmt.Errorf("report: %d separation bins vs %d values", len(rbins), len(xi))
	}
	if len(rbins) == 0 {
		return fmt.Errorf("report: nothing to plot")
	}

	pts := make(plotter.XYs, len(rbins))
	for i := range pts {
		pts[i].X = rbins[i]
		pts[i].Y = xi[i]
	}

	p := plot.New()
	p.Title.Text = "predicted correlation function"
	p.X.Label.Text = "r [Mpc/h]"
	p.Y.Label.Text = "xi(r)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("report: line: %w", err)
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
