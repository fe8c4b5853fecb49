// Package parallel runs the per-circuit solver across circuits in a bounded
// worker pool. Solving is embarrassingly parallel: workers share nothing
// but the read-only architecture table, and each worker's RNG seeds are
// derived deterministically from its circuit id.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
	"github.com/xtaci/sivmap/internal/solver"
)

// CircuitResult pairs a solved circuit with the pipeline stats SolveCircuit
// produced for it, keyed for the caller's own logging/reporting.
type CircuitResult struct {
	CircuitID int
	Result    solver.CircuitResult
}

// SolveAll solves every circuit in circuits against archs, using up to
// workers concurrent goroutines. Level-1 annealing for
// circuit c seeds from baseSeed + c's own id; level-2 adds len(circuits)
// on top, keeping the two levels' RNG streams disjoint across every circuit
// in the run while the whole run stays reproducible for a fixed baseSeed.
// Results are merged into one AllCircuitConfig keyed by circuit id; the
// second return value carries every circuit's per-pass stats in ascending
// circuit-id order for host-side reporting.
func SolveAll(ctx context.Context, archs *ramarch.Archs, circuits map[int]*ramtype.LogicalCircuit, workers int, baseSeed int64) (*maptree.AllCircuitConfig, []CircuitResult, error) {
	ids := sortedCircuitIDs(circuits)
	numCircuits := int64(len(ids))

	results := make([]solver.CircuitResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			lc := circuits[id]
			seed1 := baseSeed + int64(id)
			seed2 := baseSeed + int64(id) + numCircuits
			res, err := solver.SolveCircuit(archs, lc, seed1, seed2)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	acc := maptree.NewAllCircuitConfig()
	reports := make([]CircuitResult, len(ids))
	for i, id := range ids {
		acc.Insert(results[i].Config)
		reports[i] = CircuitResult{CircuitID: id, Result: results[i]}
	}
	return acc, reports, nil
}

func sortedCircuitIDs(circuits map[int]*ramtype.LogicalCircuit) []int {
	ids := make([]int, 0, len(circuits))
	for id := range circuits {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
