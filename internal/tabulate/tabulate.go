package tabulate

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/banshee-data/halotab/internal/bins"
	"github.com/banshee-data/halotab/internal/catalog"
	"github.com/banshee-data/halotab/internal/cosmology"
	"github.com/banshee-data/halotab/internal/hod"
	"github.com/banshee-data/halotab/internal/monitoring"
)

// Options configures a tabulation run. Defaults follow DefaultOptions.
type Options struct {
	// Mode is ModeAuto or ModeCross.
	Mode string

	// NumPtclRequirement is the minimum particle count per halo; halos
	// with Prim < NumPtclRequirement * ParticleMass are discarded.
	NumPtclRequirement float64

	// PrimHalopropKey and SecHalopropKey name the halo properties in the
	// source catalog; recorded in the bundle attrs.
	PrimHalopropKey string
	SecHalopropKey  string

	// SecHaloprop splits each primary bin by conditional secondary
	// percentile at SecHalopropSplit.
	SecHaloprop      bool
	SecHalopropSplit float64

	// PrimHalopropBins is the number of logarithmic primary-property bins.
	PrimHalopropBins int

	// SatsPerPrimHaloprop sets the reference-model satellite sampling
	// rate: expected satellites per halo per unit primary property.
	SatsPerPrimHaloprop float64

	// Downsample is the Bernoulli keep-probability applied uniformly to
	// the reference galaxy sample before tabulation.
	Downsample float64

	// RSD applies redshift-space distortions along the z axis.
	RSD       bool
	Cosmology cosmology.FlatLCDM

	// Workers bounds the number of concurrent correlation-function
	// invocations. Values below 1 mean serial.
	Workers int

	// Verbose logs per-pair progress through the monitoring logger.
	Verbose bool

	// Seed drives the reference mock population and the downsampling.
	Seed int64
}

// DefaultOptions mirrors the conventional halo-catalog defaults: a 300
// particle floor, virial mass as primary property, NFW concentration as
// secondary, 100 mass bins.
func DefaultOptions() Options {
	return Options{
		Mode:                ModeAuto,
		NumPtclRequirement:  300,
		PrimHalopropKey:     "halo_mvir",
		SecHalopropKey:      "halo_nfw_conc",
		SecHaloprop:         false,
		SecHalopropSplit:    0.5,
		PrimHalopropBins:    100,
		SatsPerPrimHaloprop: 3e-13,
		Downsample:          1.0,
		RSD:                 true,
		Cosmology:           cosmology.Planck15,
		Workers:             1,
	}
}

// Tabulate runs the full tabulation pipeline against a halo catalog:
// filtering, binning, reference mock population, bin assignment, and the
// correlation-function matrix build. tpcfName is recorded in the attrs;
// args and kwargs are forwarded verbatim to every tpcf invocation and
// persisted with the result.
//
// The correlation-function collaborator is trusted: its first error aborts
// the run with no partial results.
func Tabulate(cat *catalog.HaloCatalog, tpcf TPCF, tpcfName string,
	args [][]float64, kwargs map[string]float64, opts Options) (*TabCorr, error) {

	if err := validateMode(opts.Mode); err != nil {
		return nil, err
	}

	// Halo number densities come first: host halos only, above the
	// particle-count floor.
	halos := cat.Halos.SelectHosts().
		SelectMinPrim(opts.NumPtclRequirement * cat.ParticleMass)

	percentiles := catalog.ConditionalPercentiles(halos.Prim, halos.Sec)

	table := bins.MakeBins(halos.Prim, percentiles, cat.Volume(), bins.Options{
		PrimHalopropBins: opts.PrimHalopropBins,
		SecHaloprop:      opts.SecHaloprop,
		SecHalopropSplit: opts.SecHalopropSplit,
	})

	// Sample galaxy positions with the fixed broad reference model. The
	// model under evaluation never enters tabulation.
	gals := hod.PopulateMock(halos, hod.ReferenceModel(opts.SatsPerPrimHaloprop), opts.Seed)
	gals = downsample(gals, opts.Downsample, opts.Seed)

	// Transfer conditional percentiles onto galaxies by halo id.
	idx, err := catalog.MatchIDs(gals.HaloID, halos.ID)
	if err != nil {
		return nil, fmt.Errorf("tabulate: galaxy-halo join: %w", err)
	}
	gals.SecPercentile = make([]float64, gals.Len())
	for i, j := range idx {
		gals.SecPercentile[i] = percentiles[j]
	}

	pos := cosmology.FormatXYZ(gals.X, gals.Y, gals.Z, gals.VZ, cosmology.FormatOptions{
		Period:    cat.Lbox,
		Redshift:  cat.Redshift,
		RSD:       opts.RSD,
		Cosmology: opts.Cosmology,
	})

	subsets := assignToBins(gals, pos, table, opts.SecHaloprop, opts.SecHalopropSplit)

	tc := &TabCorr{
		Bins:   table,
		Args:   args,
		KWArgs: kwargs,
		Attrs: Attrs{
			TPCFName:           tpcfName,
			Mode:               opts.Mode,
			SimName:            cat.SimName,
			Redshift:           cat.Redshift,
			NumPtclRequirement: opts.NumPtclRequirement,
			PrimHalopropKey:    opts.PrimHalopropKey,
			SecHaloprop:        opts.SecHaloprop,
			SecHalopropKey:     opts.SecHalopropKey,
			SecHalopropSplit:   opts.SecHalopropSplit,
			RunID:              uuid.NewString(),
		},
	}

	if opts.Verbose {
		monitoring.Logf("tabulation run %s: %d bins, %d galaxies",
			tc.Attrs.RunID, table.Len(), gals.Len())
	}

	if err := buildMatrix(tc, tpcf, subsets, opts); err != nil {
		return nil, err
	}
	return tc, nil
}

// downsample keeps each galaxy with probability keep, independently.
func downsample(gals *catalog.GalaxyTable, keep float64, seed int64) *catalog.GalaxyTable {
	if keep >= 1 {
		return gals
	}
	rng := rand.New(rand.NewSource(seed + 1))
	mask := make([]bool, gals.Len())
	for i := range mask {
		mask[i] = rng.Float64() < keep
	}
	return gals.Select(mask)
}

// assignToBins computes one position subset per logical bin: galaxies whose
// halo property falls inside the bin's edges, whose type matches, and (when
// splitting) whose percentile lies on the bin's side. Subsets may be empty.
func assignToBins(gals *catalog.GalaxyTable, pos [][3]float64,
	table *bins.GalTypeTable, secOn bool, secSplit float64) [][][3]float64 {

	subsets := make([][][3]float64, table.Len())
	for b := 0; b < table.Len(); b++ {
		galType, prop := table.Row(b)
		lo := math.Pow(10, prop.LogPrimMin)
		hi := math.Pow(10, prop.LogPrimMax)

		var sub [][3]float64
		for i := 0; i < gals.Len(); i++ {
			if gals.GalType[i] != galType {
				continue
			}
			if !(gals.Prim[i] > lo && gals.Prim[i] <= hi) {
				continue
			}
			if secOn {
				onHighSide := gals.SecPercentile[i] >= secSplit
				if onHighSide != (prop.Sec == 1) {
					continue
				}
			}
			sub = append(sub, pos[i])
		}
		subsets[b] = sub
	}
	return subsets
}
