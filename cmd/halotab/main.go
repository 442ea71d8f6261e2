// Command halotab tabulates halo correlation functions and predicts galaxy
// clustering statistics for arbitrary occupation models.
//
// Subcommands:
//
//	tabulate  run a tabulation over a CSV halo catalog and write a bundle
//	predict   evaluate an occupation model against a bundle
//	inspect   print a bundle's attributes and bin table summary
//	report    render the bin-pair coverage heatmap for a bundle
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/banshee-data/halotab/internal/bins"
	"github.com/banshee-data/halotab/internal/hod"
	"github.com/banshee-data/halotab/internal/report"
	"github.com/banshee-data/halotab/internal/store"
	"github.com/banshee-data/halotab/internal/tabulate"
	"github.com/banshee-data/halotab/internal/version"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "tabulate":
		err = runTabulate(os.Args[2:])
	case "predict":
		err = runPredict(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	case "version":
		fmt.Printf("halotab %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("halotab %s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: halotab <tabulate|predict|inspect|report|version> [flags]")
}

func runTabulate(args []string) error {
	fs := flag.NewFlagSet("tabulate", flag.ExitOnError)
	halosPath := fs.String("halos", "", "CSV halo catalog path")
	out := fs.String("out", "halotab.db", "output bundle path")
	simName := fs.String("simname", "user-supplied", "simulation name")
	redshift := fs.Float64("redshift", 0, "snapshot redshift")
	particleMass := fs.Float64("particle-mass", 1e9, "particle mass")
	boxSize := fs.Float64("lbox", 250, "box size per axis")
	mode := fs.String("mode", tabulate.ModeAuto, "tabulation mode (auto or cross)")
	nBins := fs.Int("bins", 100, "number of primary-property bins")
	sec := fs.Bool("sec", false, "split bins by secondary-property percentile")
	secSplit := fs.Float64("sec-split", 0.5, "secondary percentile split")
	numPtcl := fs.Float64("num-ptcl", 300, "minimum particle count per halo")
	sats := fs.Float64("sats-per-prim", 3e-13, "reference satellites per unit primary property")
	downsample := fs.Float64("downsample", 1.0, "galaxy keep probability")
	rsd := fs.Bool("rsd", true, "apply redshift-space distortions")
	workers := fs.Int("workers", 1, "parallel correlation-function invocations")
	seed := fs.Int64("seed", 0, "random seed for the reference sample")
	rbinsCSV := fs.String("rbins", "0.1,0.3,1,3,10,30", "separation bin edges for the demo statistic")
	verbose := fs.Bool("v", false, "log progress")
	fs.Parse(args)

	if *halosPath == "" {
		return fmt.Errorf("missing -halos")
	}

	cat, err := loadHaloCatalog(*halosPath, *simName, *redshift, *particleMass,
		[3]float64{*boxSize, *boxSize, *boxSize})
	if err != nil {
		return err
	}
	log.Printf("loaded %d halos from %s", cat.Halos.Len(), *halosPath)

	rbins, err := parseCSVFloats(*rbinsCSV)
	if err != nil {
		return fmt.Errorf("-rbins: %w", err)
	}

	opts := tabulate.DefaultOptions()
	opts.Mode = *mode
	opts.PrimHalopropBins = *nBins
	opts.SecHaloprop = *sec
	opts.SecHalopropSplit = *secSplit
	opts.NumPtclRequirement = *numPtcl
	opts.SatsPerPrimHaloprop = *sats
	opts.Downsample = *downsample
	opts.RSD = *rsd
	opts.Workers = *workers
	opts.Seed = *seed
	opts.Verbose = *verbose

	tpcf := demoTPCF(cat.Lbox)
	tc, err := tabulate.Tabulate(cat, tpcf, "demo_xi", [][]float64{rbins}, nil, opts)
	if err != nil {
		return err
	}
	log.Printf("tabulated %d bins, %d pairs skipped", tc.Bins.Len(), tc.SkippedPairs)

	if err := store.Write(*out, tc); err != nil {
		return err
	}
	log.Printf("wrote %s (run %s)", *out, tc.Attrs.RunID)
	return nil
}

func runPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	bundle := fs.String("bundle", "", "bundle path")
	logMmin := fs.Float64("logMmin", 12.0, "zheng07 logMmin")
	sigma := fs.Float64("sigma-logM", 0.2, "zheng07 sigma_logM")
	logM0 := fs.Float64("logM0", 11.7, "zheng07 logM0")
	logM1 := fs.Float64("logM1", 13.3, "zheng07 logM1")
	alpha := fs.Float64("alpha", 1.0, "zheng07 alpha")
	plotPath := fs.String("plot", "", "optional PNG plot of the prediction")
	fs.Parse(args)

	if *bundle == "" {
		return fmt.Errorf("missing -bundle")
	}
	tc, err := store.Read(*bundle)
	if err != nil {
		return err
	}

	model := hod.Zheng07{
		LogMmin:   *logMmin,
		SigmaLogM: *sigma,
		LogM0:     *logM0,
		LogM1:     *logM1,
		Alpha:     *alpha,
	}
	ngal, xi := tc.Predict(model)

	var total float64
	for _, v := range ngal {
		total += v
	}
	fmt.Printf("number density: %g\n", total)
	fmt.Printf("statistic shape %v:\n", xi.Shape)
	for _, v := range xi.Values {
		fmt.Printf("  %g\n", v)
	}

	if *plotPath != "" {
		if len(tc.Args) == 0 {
			return fmt.Errorf("bundle has no separation bins to plot against")
		}
		rbins := binCenters(tc.Args[0])
		if err := report.PlotXi(rbins, xi.Values, *plotPath); err != nil {
			return err
		}
		log.Printf("wrote %s", *plotPath)
	}
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	bundle := fs.String("bundle", "", "bundle path")
	fs.Parse(args)

	if *bundle == "" {
		return fmt.Errorf("missing -bundle")
	}
	tc, err := store.Read(*bundle)
	if err != nil {
		return err
	}

	a := tc.Attrs
	fmt.Printf("run:                  %s\n", a.RunID)
	fmt.Printf("tpcf:                 %s (%s mode)\n", a.TPCFName, a.Mode)
	fmt.Printf("simulation:           %s at z=%g\n", a.SimName, a.Redshift)
	fmt.Printf("particle requirement: %g\n", a.NumPtclRequirement)
	fmt.Printf("primary property:     %s\n", a.PrimHalopropKey)
	if a.SecHaloprop {
		fmt.Printf("secondary property:   %s split at %g\n", a.SecHalopropKey, a.SecHalopropSplit)
	}
	fmt.Printf("bins:                 %d (%d property intervals)\n", tc.Bins.Len(), len(tc.Bins.Props))
	fmt.Printf("result shape:         %v\n", tc.Shape)
	fmt.Printf("skipped pairs:        %d\n", tc.SkippedPairs)

	var cen, sat int
	for i := 0; i < tc.Bins.Len(); i++ {
		g, p := tc.Bins.Row(i)
		if p.NH == 0 {
			continue
		}
		if g == bins.Central {
			cen++
		} else {
			sat++
		}
	}
	fmt.Printf("populated bins:       %d central, %d satellite\n", cen, sat)
	return nil
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	bundle := fs.String("bundle", "", "bundle path")
	out := fs.String("out", "coverage.html", "output HTML path")
	fs.Parse(args)

	if *bundle == "" {
		return fmt.Errorf("missing -bundle")
	}
	tc, err := store.Read(*bundle)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := report.CoverageHeatmap(tc, f); err != nil {
		return err
	}
	log.Printf("wrote %s", *out)
	return nil
}

// binCenters returns geometric midpoints of consecutive edge pairs, or the
// edges themselves if there is only one.
func binCenters(edges []float64) []float64 {
	if len(edges) < 2 {
		return edges
	}
	centers := make([]float64, len(edges)-1)
	for i := range centers {
		centers[i] = math.Sqrt(edges[i] * edges[i+1])
	}
	return centers
}
