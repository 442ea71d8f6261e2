package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/halotab/internal/catalog"
)

// haloColumns is the required CSV header, in order.
var haloColumns = []string{
	"halo_id", "halo_pid", "prim", "sec", "x", "y", "z", "vx", "vy", "vz",
}

// loadHaloCatalog reads a CSV halo catalog. The first row must be the
// haloColumns header; every following row is one halo.
func loadHaloCatalog(path, simName string, redshift, particleMass float64,
	lbox [3]float64) (*catalog.HaloCatalog, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i, want := range haloColumns {
		if i >= len(header) || strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("%s: header column %d must be %q", path, i, want)
		}
	}

	halos := &catalog.HaloTable{}
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+1, err)
		}
		line++
		if len(record) < len(haloColumns) {
			return nil, fmt.Errorf("%s line %d: %d columns, want %d",
				path, line, len(record), len(haloColumns))
		}

		ints := make([]int64, 2)
		for i := 0; i < 2; i++ {
			ints[i], err = strconv.ParseInt(strings.TrimSpace(record[i]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %s: %w", path, line, haloColumns[i], err)
			}
		}
		fls := make([]float64, 8)
		for i := 0; i < 8; i++ {
			fls[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+2]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %s: %w", path, line, haloColumns[i+2], err)
			}
		}

		halos.ID = append(halos.ID, ints[0])
		halos.PID = append(halos.PID, ints[1])
		halos.Prim = append(halos.Prim, fls[0])
		halos.Sec = append(halos.Sec, fls[1])
		halos.X = append(halos.X, fls[2])
		halos.Y = append(halos.Y, fls[3])
		halos.Z = append(halos.Z, fls[4])
		halos.VX = append(halos.VX, fls[5])
		halos.VY = append(halos.VY, fls[6])
		halos.VZ = append(halos.VZ, fls[7])
	}

	return &catalog.HaloCatalog{
		SimName:      simName,
		Redshift:     redshift,
		ParticleMass: particleMass,
		Lbox:         lbox,
		Halos:        halos,
	}, nil
}

// parseCSVFloats parses a comma-separated list of float64 values.
func parseCSVFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
