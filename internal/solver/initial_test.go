package solver

import (
	"testing"

	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

func smallCircuit() *ramtype.LogicalCircuit {
	return &ramtype.LogicalCircuit{
		CircuitID: 1,
		Rams: map[int]ramtype.LogicalRam{
			0: {CircuitID: 1, RamID: 0, Mode: ramtype.SinglePort, Shape: ramtype.RamShape{Width: 12, Depth: 40}},
			1: {CircuitID: 1, RamID: 1, Mode: ramtype.SimpleDualPort, Shape: ramtype.RamShape{Width: 8, Depth: 300}},
		},
		NumLogicBlocks: 50,
	}
}

func TestInitialSolveCoversEveryRam(t *testing.T) {
	archs := ramarch.GenerateDefault()
	lc := smallCircuit()

	cc, err := InitialSolve(archs, lc)
	if err != nil {
		t.Fatalf("InitialSolve: %v", err)
	}
	if len(cc.Rams) != len(lc.Rams) {
		t.Fatalf("cc has %d rams, want %d", len(cc.Rams), len(lc.Rams))
	}
	for ramID, rc := range cc.Rams {
		lr := lc.Rams[ramID]
		if shape := rc.Root.Shape(); shape != lr.Shape {
			t.Fatalf("ram %d: logical shape %+v, want %+v", ramID, shape, lr.Shape)
		}
		if !rc.Root.IsLeaf() {
			t.Fatalf("ram %d: initial solve produced a non-leaf root", ramID)
		}
		phys := rc.Root.PhysicalShape()
		if phys.Width < lr.Shape.Width || phys.Depth < lr.Shape.Depth {
			t.Fatalf("ram %d: physical shape %+v does not cover logical %+v", ramID, phys, lr.Shape)
		}
	}
}

func TestInitialSolveSmallSimpleDualPortPicksLUTRAM(t *testing.T) {
	// One 12x45 SimpleDualPort RAM against the default architecture maps
	// onto LUTRAM with a single series stage and no extra LUTs.
	archs := ramarch.GenerateDefault()
	lc := &ramtype.LogicalCircuit{
		CircuitID: 0,
		Rams: map[int]ramtype.LogicalRam{
			0: {CircuitID: 0, RamID: 0, Mode: ramtype.SimpleDualPort, Shape: ramtype.RamShape{Width: 12, Depth: 45}},
		},
		NumLogicBlocks: 100,
	}

	cc, err := InitialSolve(archs, lc)
	if err != nil {
		t.Fatalf("InitialSolve: %v", err)
	}
	rc := cc.Rams[0]
	leaf := rc.Root.Leaf
	if leaf.ArchID != 1 {
		t.Fatalf("arch id = %d, want 1 (LUTRAM)", leaf.ArchID)
	}
	if leaf.Fit.NumSeries != 1 || leaf.Fit.NumParallel < 1 {
		t.Fatalf("fit = %+v, want S=1 with P >= 1", leaf.Fit)
	}
	if got := rc.ExtraLUTs(); got != 0 {
		t.Fatalf("extra LUTs = %d, want 0", got)
	}
	want := "0 0 0 LW 12 LD 45 ID 0 S 1 P 2 Type 1 Mode SimpleDualPort W 10 D 64"
	if line := rc.Serialize(0); line != want {
		t.Fatalf("Serialize() = %q, want %q", line, want)
	}
}

func TestInitialSolveFreshUIDsPerRam(t *testing.T) {
	archs := ramarch.GenerateDefault()
	lc := smallCircuit()

	cc, err := InitialSolve(archs, lc)
	if err != nil {
		t.Fatalf("InitialSolve: %v", err)
	}
	seen := map[int]bool{}
	for _, ramID := range cc.SortedRamIDs() {
		uid := cc.Rams[ramID].Root.Leaf.UID
		if seen[uid] {
			t.Fatalf("duplicate uid %d across rams", uid)
		}
		seen[uid] = true
	}
}

func TestInitialSolveEmptyCandidateSetIsFatal(t *testing.T) {
	// An architecture table with no ram archs at all can host nothing;
	// every position's candidate set is empty, and InitialSolve must
	// surface that as an error rather than finalize a zero-value candidate.
	archs := &ramarch.Archs{RamArchs: map[int]*ramarch.RamArch{}, LBArch: ramarch.NewLogicBlockArch(nil)}
	lc := smallCircuit()

	_, err := InitialSolve(archs, lc)
	if err == nil {
		t.Fatalf("expected an error for an empty candidate set, got nil")
	}
}
