package solver

import (
	"github.com/xtaci/sivmap/internal/candidate"
	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// CircuitResult is one circuit's solved mapping plus the pass-by-pass
// annealing stats, useful for host-side logging.
type CircuitResult struct {
	Config  *maptree.CircuitConfig
	Level1  AnnealResult
	Level2  *AnnealResult // nil if the cliff splitter found nothing to split
	Sharing []SharingResult
}

// SolveCircuit runs the full per-circuit pipeline: initial greedy solve,
// level-1 annealing over root-locator candidates, cliff splitting,
// (conditionally) level-2 annealing over the resulting split/root candidate
// mix, and finally the sharing pass.
//
// seed1 and seed2 are the two annealing levels' independent RNG seeds; the
// parallel driver derives them from the circuit id. An error here is fatal
// and means lc contains a ram no architecture can hold.
func SolveCircuit(archs *ramarch.Archs, lc *ramtype.LogicalCircuit, seed1, seed2 int64) (CircuitResult, error) {
	cc, err := InitialSolve(archs, lc)
	if err != nil {
		return CircuitResult{}, err
	}

	rootMoves := rootMoveSet(archs, lc)
	l1 := NewAnnealer(archs, cc, lc.NumLogicBlocks, rootMoves, seed1, true, false, "L1", 1.0)
	level1Result := l1.Run()
	cc = l1.CircuitConfig()

	result := CircuitResult{Config: cc, Level1: level1Result}

	splitRamIDs := CliffSplit(cc)
	if len(splitRamIDs) > 0 {
		moves2 := level2MoveSet(archs, lc, cc, splitRamIDs)
		l2 := NewAnnealer(archs, cc, lc.NumLogicBlocks, moves2, seed2, true, true, "L2", 1.0)
		level2Result := l2.Run()
		cc = l2.CircuitConfig()
		result.Config = cc
		result.Level2 = &level2Result
	}

	result.Sharing = SharingPass(archs, cc)
	return result, nil
}

// rootMoveSet builds the level-1 candidate pool: every ram's single-level
// root position against its own logical shape/mode.
func rootMoveSet(archs *ramarch.Archs, lc *ramtype.LogicalCircuit) map[int][]candidate.Candidate {
	moves := map[int][]candidate.Candidate{}
	for _, ramID := range lc.SortedRamIDs() {
		lr := lc.Rams[ramID]
		moves[ramID] = candidate.Generate(archs, lr.Shape, lr.Mode, candidate.Root)
	}
	return moves
}

// level2MoveSet builds the combined second-level candidate pool: for
// rams the cliff splitter rewrote, left-child and right-child candidates
// against each child's own logical shape; for every other ram,
// its single-level-root candidates again, so the wider circuit context can
// still move them.
func level2MoveSet(archs *ramarch.Archs, lc *ramtype.LogicalCircuit, cc *maptree.CircuitConfig, splitRamIDs []int) map[int][]candidate.Candidate {
	split := map[int]bool{}
	for _, id := range splitRamIDs {
		split[id] = true
	}

	moves := map[int][]candidate.Candidate{}
	for _, ramID := range lc.SortedRamIDs() {
		rc := cc.Rams[ramID]
		if split[ramID] {
			left := rc.Root.Node.Left
			right := rc.Root.Node.Right
			cands := candidate.Generate(archs, left.LogicalShape, rc.Mode, candidate.LeftChild)
			cands = append(cands, candidate.Generate(archs, right.LogicalShape, rc.Mode, candidate.RightChild)...)
			moves[ramID] = cands
			continue
		}
		moves[ramID] = candidate.Generate(archs, rc.Root.LogicalShape, rc.Mode, candidate.Root)
	}
	return moves
}
