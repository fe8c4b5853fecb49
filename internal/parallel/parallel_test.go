package parallel

import (
	"context"
	"testing"

	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

func fixtureCircuits() map[int]*ramtype.LogicalCircuit {
	return map[int]*ramtype.LogicalCircuit{
		1: {
			CircuitID: 1,
			Rams: map[int]ramtype.LogicalRam{
				0: {CircuitID: 1, RamID: 0, Mode: ramtype.SinglePort, Shape: ramtype.RamShape{Width: 12, Depth: 40}},
			},
			NumLogicBlocks: 50,
		},
		2: {
			CircuitID: 2,
			Rams: map[int]ramtype.LogicalRam{
				0: {CircuitID: 2, RamID: 0, Mode: ramtype.SimpleDualPort, Shape: ramtype.RamShape{Width: 8, Depth: 300}},
			},
			NumLogicBlocks: 50,
		},
	}
}

func TestSolveAllCoversEveryCircuit(t *testing.T) {
	archs := ramarch.GenerateDefault()
	circuits := fixtureCircuits()

	acc, reports, err := SolveAll(context.Background(), archs, circuits, 2, 0)
	if err != nil {
		t.Fatalf("SolveAll: %v", err)
	}
	if len(acc.Circuits) != len(circuits) {
		t.Fatalf("acc has %d circuits, want %d", len(acc.Circuits), len(circuits))
	}
	if len(reports) != len(circuits) {
		t.Fatalf("reports has %d entries, want %d", len(reports), len(circuits))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i-1].CircuitID >= reports[i].CircuitID {
			t.Fatalf("reports not in ascending circuit-id order: %+v", reports)
		}
	}
}

func TestSolveAllSerialWorkerCount(t *testing.T) {
	archs := ramarch.GenerateDefault()
	circuits := fixtureCircuits()

	acc, _, err := SolveAll(context.Background(), archs, circuits, 1, 0)
	if err != nil {
		t.Fatalf("SolveAll: %v", err)
	}
	if len(acc.Circuits) != len(circuits) {
		t.Fatalf("acc has %d circuits, want %d", len(acc.Circuits), len(circuits))
	}
}

func TestSolveAllDeterministicForFixedSeed(t *testing.T) {
	archs := ramarch.GenerateDefault()

	first, _, err := SolveAll(context.Background(), archs, fixtureCircuits(), 2, 42)
	if err != nil {
		t.Fatalf("SolveAll: %v", err)
	}
	second, _, err := SolveAll(context.Background(), archs, fixtureCircuits(), 2, 42)
	if err != nil {
		t.Fatalf("SolveAll: %v", err)
	}
	if first.Serialize(0) != second.Serialize(0) {
		t.Fatalf("two runs with the same seed produced different mappings")
	}
}

func TestSolveAllPropagatesError(t *testing.T) {
	archs := &ramarch.Archs{RamArchs: map[int]*ramarch.RamArch{}, LBArch: ramarch.NewLogicBlockArch(nil)}
	circuits := fixtureCircuits()

	_, _, err := SolveAll(context.Background(), archs, circuits, 2, 0)
	if err == nil {
		t.Fatalf("expected an error when no architecture can host any ram")
	}
}
