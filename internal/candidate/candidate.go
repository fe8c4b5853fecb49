// Package candidate enumerates legal physical-block configurations for a
// logical RAM position, and describes where in a mapping tree a chosen
// candidate would replace a leaf.
package candidate

import (
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// Locator names the tree position a Candidate would occupy once applied.
type Locator int

const (
	// Root replaces the entire single-level tree for a RAM (used by the
	// initial solver and by rams untouched by the cliff splitter).
	Root Locator = iota
	// LeftChild replaces the left leaf of a two-child split produced by
	// the cliff splitter.
	LeftChild
	// RightChild replaces the right leaf of that same split.
	RightChild
)

func (l Locator) String() string {
	switch l {
	case Root:
		return "root"
	case LeftChild:
		return "left"
	case RightChild:
		return "right"
	default:
		return "locator(?)"
	}
}

// Candidate is one legal physical-block configuration for a logical
// shape/mode position. UID is assigned only when the candidate is applied
// to a tree.
type Candidate struct {
	Locator       Locator
	ArchID        int
	Mode          ramtype.RamMode
	PhysicalShape ramtype.RamShape
	Fit           ramtype.RamShapeFit
}

// Generate enumerates every (arch, physical_shape) pair legal for
// logicalShape in mode, at the given tree locator: every arch supporting
// mode, every shape that arch offers for mode, filtered to fit.NumSeries
// <= 16.
func Generate(archs *ramarch.Archs, logicalShape ramtype.RamShape, mode ramtype.RamMode, loc Locator) []Candidate {
	var out []Candidate
	for _, archID := range archs.SortedRamArchIDs() {
		arch := archs.RamArchs[archID]
		if !arch.SupportedMode.Has(mode) {
			continue
		}
		for _, shape := range arch.ShapesFor(mode) {
			fit := logicalShape.Fit(shape)
			if !fit.Legal() {
				continue
			}
			out = append(out, Candidate{
				Locator:       loc,
				ArchID:        archID,
				Mode:          mode,
				PhysicalShape: shape,
				Fit:           fit,
			})
		}
	}
	return out
}
