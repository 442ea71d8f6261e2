package main

import (
	"fmt"
	"math"

	"github.com/banshee-data/halotab/internal/tabulate"
)

// demoTPCF returns a reference implementation of the correlation-function
// collaborator: the natural estimator DD/RR - 1 in radial shells with
// minimum-image periodic distances. It exists so the CLI can run end to end
// without an external statistics package; production tabulations should
// plug in a dedicated estimator. Brute-force O(n²) pair counting, demo
// scale only.
func demoTPCF(lbox [3]float64) tabulate.TPCF {
	volume := lbox[0] * lbox[1] * lbox[2]

	return func(s1, s2 [][3]float64, req tabulate.StatRequest) (*tabulate.Result, error) {
		if len(req.Args) == 0 || len(req.Args[0]) < 2 {
			return nil, fmt.Errorf("demo_xi: separation bin edges required as arg_0")
		}
		edges := req.Args[0]
		counts := make([]float64, len(edges)-1)

		var expectedPairs float64
		if s2 == nil {
			// Auto pairs, each unordered pair once.
			for i := range s1 {
				for j := i + 1; j < len(s1); j++ {
					accumulate(counts, edges, shellDistance(s1[i], s1[j], lbox))
				}
			}
			expectedPairs = float64(len(s1)) * float64(len(s1)-1) / 2
		} else {
			for i := range s1 {
				for j := range s2 {
					accumulate(counts, edges, shellDistance(s1[i], s2[j], lbox))
				}
			}
			expectedPairs = float64(len(s1)) * float64(len(s2))
		}

		values := make([]float64, len(counts))
		if expectedPairs == 0 {
			// A single-galaxy bin has no pairs to estimate from.
			return &tabulate.Result{Values: values, Shape: []int{len(values)}}, nil
		}
		for k := range counts {
			shell := 4 * math.Pi / 3 *
				(math.Pow(edges[k+1], 3) - math.Pow(edges[k], 3))
			rr := expectedPairs * shell / volume
			values[k] = counts[k]/rr - 1
		}
		return &tabulate.Result{Values: values, Shape: []int{len(values)}}, nil
	}
}

func accumulate(counts []float64, edges []float64, d float64) {
	for k := 0; k < len(counts); k++ {
		if d >= edges[k] && d < edges[k+1] {
			counts[k]++
			return
		}
	}
}

// shellDistance is the minimum-image separation in a periodic box.
func shellDistance(a, b [3]float64, lbox [3]float64) float64 {
	var sum float64
	for d := 0; d < 3; d++ {
		dx := math.Abs(a[d] - b[d])
		if lbox[d] > 0 && dx > lbox[d]/2 {
			dx = lbox[d] - dx
		}
		sum += dx * dx
	}
	return math.Sqrt(sum)
}
