package tabulate

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/halotab/internal/monitoring"
)

// pairTask is one correlation-function invocation. In cross mode j == i.
type pairTask struct {
	i, j int
}

// buildMatrix tabulates the correlation-function matrix over all qualifying
// bin pairs. The callable is probed once on the first non-empty bin to
// discover the result shape, the full matrix is preallocated, and the
// remaining pairs run across opts.Workers goroutines. Workers own disjoint
// matrix cells, so the matrix itself needs no locking.
//
// Pairs with an empty subset on either side are skipped and their cells left
// as zero. That treats "too few objects to sample" as a negligible
// contribution; tc.SkippedPairs records how often it happened.
func buildMatrix(tc *TabCorr, tpcf TPCF, subsets [][][3]float64, opts Options) error {
	n := tc.Bins.Len()
	probe := -1
	for i, s := range subsets {
		if len(s) > 0 {
			probe = i
			break
		}
	}
	if n == 0 || probe == -1 {
		// Nothing to tabulate; the result shape is unknowable and the
		// matrix stays empty.
		tc.SkippedPairs = countAllPairs(n, tc.Attrs.Mode)
		return nil
	}

	base := StatRequest{Args: tc.Args, KWArgs: tc.KWArgs}

	// Shape discovery: one auto-statistic call on the probe bin, stored in
	// its own cell so the main loop never revisits it.
	probeReq := base
	if tc.Attrs.Mode == ModeAuto {
		probeReq.DoAuto = true
	}
	res, err := tpcf(subsets[probe], nil, probeReq)
	if err != nil {
		return fmt.Errorf("tabulate: probing result shape on bin %d: %w", probe, err)
	}
	k := Flatlen(res.Shape)
	if k != len(res.Values) {
		return fmt.Errorf("tabulate: tpcf shape %v does not match %d values", res.Shape, len(res.Values))
	}
	tc.Shape = res.Shape
	if tc.Attrs.Mode == ModeAuto {
		tc.Matrix = make([]float64, k*n*n)
	} else {
		tc.Matrix = make([]float64, k*n)
	}
	tc.storeResult(probe, probe, res.Values)

	var tasks []pairTask
	if tc.Attrs.Mode == ModeAuto {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				if len(subsets[i]) == 0 || len(subsets[j]) == 0 {
					tc.SkippedPairs++
					continue
				}
				if i == probe && j == probe {
					continue
				}
				tasks = append(tasks, pairTask{i, j})
			}
		}
	} else {
		for i := 0; i < n; i++ {
			if len(subsets[i]) == 0 {
				tc.SkippedPairs++
				continue
			}
			if i == probe {
				continue
			}
			tasks = append(tasks, pairTask{i, i})
		}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if len(tasks) == 0 {
		return nil
	}

	var (
		next     atomic.Int64
		done     atomic.Int64
		failed   atomic.Bool
		errOnce  sync.Once
		firstErr error
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		failed.Store(true)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				t := int(next.Add(1)) - 1
				if t >= len(tasks) || failed.Load() {
					return
				}
				task := tasks[t]
				req := base
				var sample2 [][3]float64
				if tc.Attrs.Mode == ModeAuto {
					if task.i == task.j {
						req.DoAuto = true
					} else {
						req.DoCross = true
						sample2 = subsets[task.j]
					}
				}
				res, err := tpcf(subsets[task.i], sample2, req)
				if err != nil {
					fail(fmt.Errorf("tabulate: bin pair (%d,%d): %w", task.i, task.j, err))
					return
				}
				if len(res.Values) != k {
					fail(fmt.Errorf("tabulate: bin pair (%d,%d): result length %d, want %d",
						task.i, task.j, len(res.Values), k))
					return
				}
				tc.storeResult(task.i, task.j, res.Values)
				if opts.Verbose {
					monitoring.Logf("pair %d/%d", done.Add(1), int64(len(tasks)))
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// storeResult writes one invocation's flattened values into the matrix. Auto
// mode mirrors the values across the diagonal: correlation estimates between
// two disjoint bins are reciprocal by construction.
func (tc *TabCorr) storeResult(i, j int, values []float64) {
	for e, v := range values {
		tc.Matrix[tc.matrixIndex(e, i, j)] = v
		if tc.Attrs.Mode == ModeAuto && i != j {
			tc.Matrix[tc.matrixIndex(e, j, i)] = v
		}
	}
}

// countAllPairs is the number of cells that would have been tabulated.
func countAllPairs(n int, mode string) int {
	if mode == ModeAuto {
		return n * (n + 1) / 2
	}
	return n
}
