// Package ramtype holds the value types shared by the architecture model,
// the candidate generator and the mapping tree: RAM port modes and shapes,
// and the logical-RAM/logical-circuit inputs the mapper is asked to solve.
package ramtype

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// RamMode is a set-typed enumeration: the four atoms compose as a bitset so
// that "mode is supported" queries (mode is a subset of an arch's supported
// modes) are plain bitwise tests.
type RamMode uint8

const (
	ROM RamMode = 1 << iota
	SinglePort
	SimpleDualPort
	TrueDualPort
)

// modeNames keeps String()/ParseRamMode() in lockstep with the four atoms.
var modeNames = [...]struct {
	mode RamMode
	name string
}{
	{ROM, "ROM"},
	{SinglePort, "SinglePort"},
	{SimpleDualPort, "SimpleDualPort"},
	{TrueDualPort, "TrueDualPort"},
}

// PortCount returns 1 for the single-port modes (ROM, SinglePort) and 2 for
// the dual-port modes (SimpleDualPort, TrueDualPort).
func (m RamMode) PortCount() int {
	switch m {
	case ROM, SinglePort:
		return 1
	case SimpleDualPort, TrueDualPort:
		return 2
	default:
		panic(fmt.Sprintf("ramtype: PortCount of composite or zero mode %v", m))
	}
}

// Has reports whether other's bits are a subset of m, i.e. m supports mode
// other.
func (m RamMode) Has(other RamMode) bool {
	return other&m == other
}

func (m RamMode) String() string {
	for _, e := range modeNames {
		if e.mode == m {
			return e.name
		}
	}
	return fmt.Sprintf("RamMode(%#x)", uint8(m))
}

// ParseRamMode parses one of the four atom names. Composite modes never
// appear in input files, so only atoms are accepted.
func ParseRamMode(s string) (RamMode, error) {
	for _, e := range modeNames {
		if e.name == s {
			return e.mode, nil
		}
	}
	return 0, errors.Errorf("ramtype: unrecognized RamMode %q", s)
}

// RamShapeFit describes how many copies of a smaller physical shape tile a
// larger logical shape: num_series copies deepen it, num_parallel copies
// widen it.
type RamShapeFit struct {
	NumSeries   int
	NumParallel int
}

// Count is the total number of physical blocks this fit uses.
func (f RamShapeFit) Count() int {
	return f.NumSeries * f.NumParallel
}

// Legal reports whether the series depth is within the architectural cap.
func (f RamShapeFit) Legal() bool {
	return f.NumSeries <= MaxSeries
}

// MaxSeries is the hard cap on serial composition depth;
// any fit needing more series blocks is silently excluded as a candidate.
const MaxSeries = 16

// RamShape is a width x depth rectangle of bits.
type RamShape struct {
	Width int
	Depth int
}

// Size is the total bit capacity of the shape.
func (s RamShape) Size() int {
	return s.Width * s.Depth
}

func (s RamShape) String() string {
	return fmt.Sprintf("W%dxD%d=%d", s.Width, s.Depth, s.Size())
}

// ShapeFromSize builds a RamShape of the given total size and width; width
// must evenly divide size.
func ShapeFromSize(size, width int) RamShape {
	if width <= 0 || size%width != 0 {
		panic(fmt.Sprintf("ramtype: width %d does not divide size %d", width, size))
	}
	return RamShape{Width: width, Depth: size / width}
}

// Fit computes how many copies of smaller tile s (the logical/larger shape).
func (s RamShape) Fit(smaller RamShape) RamShapeFit {
	return RamShapeFit{
		NumSeries:   ceilDiv(s.Depth, smaller.Depth),
		NumParallel: ceilDiv(s.Width, smaller.Width),
	}
}

// Less implements the lexicographic tie-break ordering (size, width, depth).
func (s RamShape) Less(other RamShape) bool {
	if s.Size() != other.Size() {
		return s.Size() < other.Size()
	}
	if s.Width != other.Width {
		return s.Width < other.Width
	}
	return s.Depth < other.Depth
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

// LogicalRam is one required memory in a circuit: immutable input data.
type LogicalRam struct {
	CircuitID int
	RamID     int
	Mode      RamMode
	Shape     RamShape
}

// LogicalCircuit is the set of logical RAMs a circuit needs plus its logic
// block budget.
type LogicalCircuit struct {
	CircuitID      int
	Rams           map[int]LogicalRam // keyed by RamID
	NumLogicBlocks int
}

// SortedRamIDs returns the ram IDs of the circuit in ascending order, the
// deterministic iteration order required across the solver.
func (lc LogicalCircuit) SortedRamIDs() []int {
	ids := make([]int, 0, len(lc.Rams))
	for id := range lc.Rams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
