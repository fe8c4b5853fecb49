package solver

import (
	"testing"

	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// singleLeafCircuit builds a one-ram circuit whose root is a single leaf
// with numParallel copies of a block perBlockWidth wide, against a
// logicalWidth-wide logical shape.
func singleLeafCircuit(circuitID, ramID, uid, numParallel int, perBlockWidth, logicalWidth, depth int) *maptree.CircuitConfig {
	leaf := &maptree.PhysicalRamConfig{
		UID:           uid,
		Fit:           ramtype.RamShapeFit{NumSeries: 1, NumParallel: numParallel},
		ArchID:        1,
		Mode:          ramtype.SinglePort,
		PhysicalShape: ramtype.RamShape{Width: perBlockWidth, Depth: depth},
	}
	root := maptree.NewLeafConfig(ramtype.RamShape{Width: logicalWidth, Depth: depth}, leaf)
	cc := maptree.NewCircuitConfig(circuitID)
	cc.Insert(&maptree.RamConfig{CircuitID: circuitID, RamID: ramID, Mode: ramtype.SinglePort, Root: root})
	return cc
}

func TestCliffSplitRewritesWidthCliff(t *testing.T) {
	// 2 parallel copies of a 20-wide block (total width 40) against a
	// 22-wide logical shape: 18 bits of spare width over two columns,
	// splittable.
	cc := singleLeafCircuit(1, 0, 0, 2, 20, 22, 32)

	rewritten := CliffSplit(cc)
	if len(rewritten) != 1 || rewritten[0] != 0 {
		t.Fatalf("rewritten = %v, want [0]", rewritten)
	}

	rc := cc.Rams[0]
	if rc.Root.IsLeaf() {
		t.Fatalf("expected a split root after cliff split")
	}
	left := rc.Root.Node.Left
	right := rc.Root.Node.Right
	if left.Leaf.UID == right.Leaf.UID {
		t.Fatalf("children share a uid: left=%d right=%d", left.Leaf.UID, right.Leaf.UID)
	}
}

func TestCliffSplitPreservesBlockCount(t *testing.T) {
	cc := singleLeafCircuit(1, 0, 0, 2, 20, 22, 32)
	before := cc.BlockCount()

	CliffSplit(cc)
	after := cc.BlockCount()

	for arch, n := range before {
		if after[arch] != n {
			t.Fatalf("block count for arch %d changed from %d to %d", arch, n, after[arch])
		}
	}
}

func TestCliffSplitPreservesExtraLUTs(t *testing.T) {
	// 4 serial x 3 parallel copies of a 8-wide block against a 17-wide
	// logical shape: splitting must not change the read-mux width total.
	leaf := &maptree.PhysicalRamConfig{
		UID:           0,
		Fit:           ramtype.RamShapeFit{NumSeries: 4, NumParallel: 3},
		ArchID:        1,
		Mode:          ramtype.SinglePort,
		PhysicalShape: ramtype.RamShape{Width: 8, Depth: 16},
	}
	root := maptree.NewLeafConfig(ramtype.RamShape{Width: 17, Depth: 60}, leaf)
	cc := maptree.NewCircuitConfig(1)
	cc.Insert(&maptree.RamConfig{CircuitID: 1, RamID: 0, Mode: ramtype.SinglePort, Root: root})

	before := cc.ExtraLUTs()
	CliffSplit(cc)
	if after := cc.ExtraLUTs(); after != before {
		t.Fatalf("extra LUTs changed from %d to %d across cliff split", before, after)
	}

	rc := cc.Rams[0]
	left := rc.Root.Node.Left
	right := rc.Root.Node.Right
	if got := left.Shape().Width + right.Shape().Width; got != 17 {
		t.Fatalf("child logical widths sum to %d, want 17", got)
	}
	if left.Shape().Width != 8 || right.Shape().Width != 9 {
		t.Fatalf("child widths = (%d, %d), want (8, 9)", left.Shape().Width, right.Shape().Width)
	}
}

func TestCliffSplitSkipsNoCliff(t *testing.T) {
	// perBlockWidth == logicalWidth with a single copy: nothing to peel off.
	cc := singleLeafCircuit(1, 0, 0, 1, 20, 20, 32)
	rewritten := CliffSplit(cc)
	if len(rewritten) != 0 {
		t.Fatalf("rewritten = %v, want none", rewritten)
	}
}

func TestCliffSplitAllocatesUIDsPastExisting(t *testing.T) {
	cc := singleLeafCircuit(1, 0, 5, 2, 20, 22, 32)
	CliffSplit(cc)

	rc := cc.Rams[0]
	left := rc.Root.Node.Left
	right := rc.Root.Node.Right
	if left.Leaf.UID <= 5 || right.Leaf.UID <= 5 {
		t.Fatalf("expected fresh uids above 5, got left=%d right=%d", left.Leaf.UID, right.Leaf.UID)
	}
}
