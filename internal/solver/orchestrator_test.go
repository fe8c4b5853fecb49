package solver

import (
	"testing"

	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

func TestSolveCircuitProducesLegalMapping(t *testing.T) {
	archs := ramarch.GenerateDefault()
	lc := smallCircuit()

	result, err := SolveCircuit(archs, lc, 1, 2)
	if err != nil {
		t.Fatalf("SolveCircuit: %v", err)
	}
	if len(result.Config.Rams) != len(lc.Rams) {
		t.Fatalf("result covers %d rams, want %d", len(result.Config.Rams), len(lc.Rams))
	}
	for ramID, lr := range lc.Rams {
		rc, ok := result.Config.Rams[ramID]
		if !ok {
			t.Fatalf("ram %d missing from result", ramID)
		}
		if shape := rc.Root.Shape(); shape != lr.Shape {
			t.Fatalf("ram %d: logical shape %+v, want %+v", ramID, shape, lr.Shape)
		}
		phys := rc.Root.PhysicalShape()
		if phys.Width < lr.Shape.Width || phys.Depth < lr.Shape.Depth {
			t.Fatalf("ram %d: physical shape %+v does not cover logical %+v", ramID, phys, lr.Shape)
		}
	}
}

func TestSolveCircuitHandlesUnmappableRam(t *testing.T) {
	lc := &ramtype.LogicalCircuit{
		CircuitID: 9,
		Rams: map[int]ramtype.LogicalRam{
			0: {CircuitID: 9, RamID: 0, Mode: ramtype.ROM, Shape: ramtype.RamShape{Width: 12, Depth: 40}},
		},
		NumLogicBlocks: 10,
	}
	archs := &ramarch.Archs{RamArchs: map[int]*ramarch.RamArch{}, LBArch: ramarch.NewLogicBlockArch(nil)}

	_, err := SolveCircuit(archs, lc, 1, 2)
	if err == nil {
		t.Fatalf("expected an error for an unmappable ram")
	}
}
