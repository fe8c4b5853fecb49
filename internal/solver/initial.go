// Package solver implements the per-circuit mapping pipeline: the initial
// greedy solver, the simulated-annealing optimizer, the cliff splitter, the
// true-dual-port sharing pass, and the orchestrator that sequences them.
package solver

import (
	"github.com/pkg/errors"

	"github.com/xtaci/sivmap/internal/candidate"
	"github.com/xtaci/sivmap/internal/costmodel"
	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// uidAllocator hands out fresh physical-ram uids, scoped to one circuit
// solve.
type uidAllocator struct {
	next int
}

func (u *uidAllocator) assign() int {
	id := u.next
	u.next++
	return id
}

// InitialSolve builds a depth-1 tree for every logical RAM in lc: for each
// RAM, enumerate every single-level-root candidate and keep the one
// minimizing a standalone area estimate (zero logic blocks, full area
// accounting). An empty candidate set for any ram is fatal: no
// architecture in archs can hold that (shape, mode) at all, and the circuit
// cannot be mapped.
func InitialSolve(archs *ramarch.Archs, lc *ramtype.LogicalCircuit) (*maptree.CircuitConfig, error) {
	cc := maptree.NewCircuitConfig(lc.CircuitID)
	uids := &uidAllocator{}
	for _, ramID := range lc.SortedRamIDs() {
		lr := lc.Rams[ramID]
		rc, err := solveSingleRam(archs, uids, lr)
		if err != nil {
			return nil, err
		}
		cc.Insert(rc)
	}
	return cc, nil
}

func solveSingleRam(archs *ramarch.Archs, uids *uidAllocator, lr ramtype.LogicalRam) (*maptree.RamConfig, error) {
	cands := candidate.Generate(archs, lr.Shape, lr.Mode, candidate.Root)
	if len(cands) == 0 {
		return nil, errors.Errorf("solver: circuit %d ram %d: no architecture supports shape %s in mode %s", lr.CircuitID, lr.RamID, lr.Shape, lr.Mode)
	}

	var best candidate.Candidate
	var bestArea int64 = -1
	var bestExtra, bestBlocks int
	for _, c := range cands {
		leaf := &maptree.PhysicalRamConfig{
			UID:           -1,
			Fit:           c.Fit,
			ArchID:        c.ArchID,
			Mode:          c.Mode,
			PhysicalShape: c.PhysicalShape,
		}
		lrc := maptree.NewLeafConfig(lr.Shape, leaf)
		extraLUTs := lrc.ExtraLUTs(lr.Mode)
		qor := costmodel.Evaluate(archs, 0, extraLUTs, lrc.BlockCount(), false)
		better := bestArea == -1 ||
			qor.FPGAArea < bestArea ||
			(qor.FPGAArea == bestArea && extraLUTs < bestExtra) ||
			(qor.FPGAArea == bestArea && extraLUTs == bestExtra && c.Fit.Count() < bestBlocks)
		if better {
			bestArea = qor.FPGAArea
			bestExtra = extraLUTs
			bestBlocks = c.Fit.Count()
			best = c
		}
	}

	leaf := &maptree.PhysicalRamConfig{
		UID:           uids.assign(),
		Fit:           best.Fit,
		ArchID:        best.ArchID,
		Mode:          best.Mode,
		PhysicalShape: best.PhysicalShape,
	}
	root := maptree.NewLeafConfig(lr.Shape, leaf)
	return &maptree.RamConfig{CircuitID: lr.CircuitID, RamID: lr.RamID, Mode: lr.Mode, Root: root}, nil
}
