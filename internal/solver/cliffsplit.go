package solver

import (
	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// cliffMaxNumParallel is the largest number of physical columns peeled off
// into the right child of a cliff split.
const cliffMaxNumParallel = 2

// CliffSplit scans every single-leaf RamConfig in cc and rewrites any leaf
// whose physical width exceeds its logical width (by any amount) and that
// spans more than one block column into a parallel two-child split. It returns
// the ram ids it rewrote, in ascending order — the move set for the
// second annealing level is built from this list.
func CliffSplit(cc *maptree.CircuitConfig) []int {
	uids := &uidAllocator{next: nextUIDAfter(cc)}

	var rewritten []int
	for _, ramID := range cc.SortedRamIDs() {
		rc := cc.Rams[ramID]
		if !rc.Root.IsLeaf() {
			continue
		}
		leaf := rc.Root.Leaf
		physical := leaf.Shape()
		logical := rc.Root.LogicalShape
		extraWidth := physical.Width - logical.Width
		if extraWidth <= 0 || leaf.Fit.NumParallel <= 1 {
			continue // no width cliff to split; depth cliffs are left untouched
		}

		c := cliffMaxNumParallel
		if c > leaf.Fit.NumParallel-1 {
			c = leaf.Fit.NumParallel - 1
		}
		rc.Root = splitByParallel(uids, leaf, logical, c)
		rewritten = append(rewritten, ramID)
	}
	return rewritten
}

// nextUIDAfter returns one past the highest physical-ram uid already in
// use, so cliff-split children get fresh uids that never collide with an
// existing leaf.
func nextUIDAfter(cc *maptree.CircuitConfig) int {
	max := -1
	visitor := func(l *maptree.LogicalRamConfig) {
		if l.Leaf.UID > max {
			max = l.Leaf.UID
		}
	}
	for _, ramID := range cc.SortedRamIDs() {
		cc.Rams[ramID].Root.VisitLeaves(visitor)
	}
	return max + 1
}

// splitByParallel rewrites a single leaf with fit.NumParallel copies into a
// parallel split: a left child keeping (NumParallel-c) copies at its full
// physical width, and a right child with c copies covering the remaining
// logical width (the width waste lands entirely in the right child). Both
// children keep the full logical depth and get fresh uids. The children's
// logical widths sum to the original logical width and both share
// num_series, so the maptree write-decoder-sharing credit keeps the total
// extra-LUT count unchanged, and the block count is trivially preserved.
func splitByParallel(uids *uidAllocator, leaf *maptree.PhysicalRamConfig, logical ramtype.RamShape, c int) *maptree.LogicalRamConfig {
	leftParallel := leaf.Fit.NumParallel - c
	rightParallel := c

	leftLeaf := &maptree.PhysicalRamConfig{
		UID:           uids.assign(),
		Fit:           ramtype.RamShapeFit{NumSeries: leaf.Fit.NumSeries, NumParallel: leftParallel},
		ArchID:        leaf.ArchID,
		Mode:          leaf.Mode,
		PhysicalShape: leaf.PhysicalShape,
	}
	rightLeaf := &maptree.PhysicalRamConfig{
		UID:           uids.assign(),
		Fit:           ramtype.RamShapeFit{NumSeries: leaf.Fit.NumSeries, NumParallel: rightParallel},
		ArchID:        leaf.ArchID,
		Mode:          leaf.Mode,
		PhysicalShape: leaf.PhysicalShape,
	}

	leftWidth := leftParallel * leaf.PhysicalShape.Width
	leftShape := ramtype.RamShape{Width: leftWidth, Depth: logical.Depth}
	rightShape := ramtype.RamShape{Width: logical.Width - leftWidth, Depth: logical.Depth}
	left := maptree.NewLeafConfig(leftShape, leftLeaf)
	right := maptree.NewLeafConfig(rightShape, rightLeaf)
	node := &maptree.Split{Dimension: maptree.Parallel, Left: left, Right: right}
	return maptree.NewSplitConfig(node)
}
