// Package ramarch describes the physical architectures the mapper can
// target: LUT-RAMs and Block-RAMs of various sizes, plus the logic-block
// fabric they sit in. A RamArch is a tagged variant (LUTRAM | BlockRAM)
// rather than an interface hierarchy; every concrete arch precomputes its
// shape table and area once at construction time.
package ramarch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xtaci/sivmap/internal/ramtype"
)

// RamKind tags which physical family a RamArch belongs to.
type RamKind int

const (
	LUTRAM RamKind = iota
	BlockRAM
)

func (k RamKind) String() string {
	switch k {
	case LUTRAM:
		return "LUTRAM"
	case BlockRAM:
		return "BlockRAM"
	default:
		return fmt.Sprintf("RamKind(%d)", int(k))
	}
}

// Ratio is a (A, B) pair meaning "A logic blocks correspond to B of this
// block type" — used both for area accounting and for aspect-ratio supply.
type Ratio struct {
	A int
	B int
}

// BlockCount computes how many blocks of this type fit into tiles logic
// blocks, rounding down (the supply a given tile budget actually grants).
func (r Ratio) BlockCount(tiles int) int {
	return int(math.Floor(float64(tiles) * float64(r.B) / float64(r.A)))
}

// RamArch is one physical RAM block architecture: a LUTRAM or a BlockRAM,
// with its precomputed shape table and area.
type RamArch struct {
	ID            int
	Kind          RamKind
	MaxShape      ramtype.RamShape
	SupportedMode ramtype.RamMode
	LBToBlock     Ratio
	Area          int

	// shapesByMode is precomputed once at construction: width-descending
	// legal port-width layouts for every mode this arch supports.
	shapesByMode map[ramtype.RamMode][]ramtype.RamShape
}

// ShapesFor returns the legal physical layouts for mode, widest first. For
// BlockRAM in TrueDualPort the widest single-port width is excluded (one
// fewer doubling step).
func (a *RamArch) ShapesFor(mode ramtype.RamMode) []ramtype.RamShape {
	return a.shapesByMode[mode]
}

// BlockCount returns how many blocks of this arch a tile budget supplies.
func (a *RamArch) BlockCount(tiles int) int {
	return a.LBToBlock.BlockCount(tiles)
}

func (a *RamArch) String() string {
	return fmt.Sprintf("<%d %s %s (%v) LB:self=(%d,%d) Area:%d>",
		a.ID, a.Kind, a.MaxShape, a.SupportedMode, a.LBToBlock.A, a.LBToBlock.B, a.Area)
}

// allPow2Below lists every power of two <= x, descending, stopping at 1.
// Mirrors the original implementation's all_pow2_below/highest_pow2_below.
func allPow2Below(x int) []int {
	var out []int
	for x >= 1 {
		p := highestPow2Below(x)
		out = append(out, p)
		if p <= 1 {
			break
		}
		x = p - 1
	}
	return out
}

func highestPow2Below(n int) int {
	p := int(math.Log2(float64(n)))
	return 1 << uint(p)
}

// NewBlockRAM constructs a BlockRAM arch of the given bit size and maximum
// port width, with the given logic-block:block ratio.
func NewBlockRAM(id, size, maxWidth int, ratio Ratio) *RamArch {
	maxShape := ramtype.ShapeFromSize(size, maxWidth)
	area := blockRAMArea(size, maxWidth)
	a := &RamArch{
		ID:            id,
		Kind:          BlockRAM,
		MaxShape:      maxShape,
		SupportedMode: ramtype.ROM | ramtype.SinglePort | ramtype.SimpleDualPort | ramtype.TrueDualPort,
		LBToBlock:     ratio,
		Area:          area,
	}
	a.shapesByMode = map[ramtype.RamMode][]ramtype.RamShape{}
	for _, mode := range []ramtype.RamMode{ramtype.ROM, ramtype.SinglePort, ramtype.SimpleDualPort, ramtype.TrueDualPort} {
		modeMaxWidth := maxWidth
		if mode == ramtype.TrueDualPort {
			modeMaxWidth = maxWidth - 1
		}
		var shapes []ramtype.RamShape
		for _, w := range allPow2Below(modeMaxWidth) {
			shapes = append(shapes, ramtype.ShapeFromSize(size, w))
		}
		a.shapesByMode[mode] = shapes
	}
	return a
}

// blockRAMArea is round(9000 + 5*bits + 90*sqrt(bits) + 1200*max_width).
func blockRAMArea(bits, maxWidth int) int {
	area := 9000.0 + 5*float64(bits) + 90*math.Sqrt(float64(bits)) + 1200*float64(maxWidth)
	return int(math.Round(area))
}

// lutramShapes are the two fixed LUTRAM layouts.
var lutramShapes = []ramtype.RamShape{{Width: 20, Depth: 32}, {Width: 10, Depth: 64}}

const lutramArea = 40000

// NewLUTRAM constructs the fixed-shape LUTRAM arch. perLBRatio is the
// "per-LB slice" configuration (a, b); the arch's own LB:block ratio is
// derived as (a+b, b), since a LUTRAM block is carved out of an LB slice
// rather than being a standalone tile.
func NewLUTRAM(id int, perLBRatio Ratio) *RamArch {
	a := &RamArch{
		ID:            id,
		Kind:          LUTRAM,
		MaxShape:      ramtype.RamShape{Width: 20, Depth: 32},
		SupportedMode: ramtype.ROM | ramtype.SinglePort | ramtype.SimpleDualPort,
		LBToBlock:     Ratio{A: perLBRatio.A + perLBRatio.B, B: perLBRatio.B},
		Area:          lutramArea,
	}
	a.shapesByMode = map[ramtype.RamMode][]ramtype.RamShape{
		ramtype.ROM:            lutramShapes,
		ramtype.SinglePort:     lutramShapes,
		ramtype.SimpleDualPort: lutramShapes,
	}
	return a
}

// LogicBlockArch is the regular (non-LUTRAM) logic-block fabric.
type LogicBlockArch struct {
	LBToBlock Ratio // derived from the LUTRAM ratio, see NewLogicBlockArch
	LBToLUT   Ratio
	Area      int
}

const regularLBArea = 35000

// NewLogicBlockArch takes the same per-LB slice ratio given to NewLUTRAM
// (if any), forms the LUTRAM ratio (a, b) = (slice.A+slice.B, slice.B) from
// it, and derives the regular-LB ratio as (a, a-b), so LUTRAM tiles and
// regular-LB tiles partition the chip.
// When there is no LUTRAM arch, the ratio is (1,1): every tile is a
// regular LB.
func NewLogicBlockArch(lutramRatio *Ratio) *LogicBlockArch {
	ratio := Ratio{A: 1, B: 1}
	if lutramRatio != nil {
		a := lutramRatio.A + lutramRatio.B
		b := lutramRatio.B
		ratio = Ratio{A: a, B: a - b}
	}
	return &LogicBlockArch{
		LBToBlock: ratio,
		LBToLUT:   Ratio{A: 1, B: 10},
		Area:      regularLBArea,
	}
}

// BlockCount rounds UP, unlike RamArch.BlockCount: the regular fabric must
// supply at least as many LBs as required, never fewer.
func (l *LogicBlockArch) BlockCount(tiles int) int {
	return int(math.Ceil(float64(tiles) * float64(l.LBToBlock.B) / float64(l.LBToBlock.A)))
}

// BlockCountFromLUTs converts an extra-LUT count into the regular LBs
// needed to host it: ceil(n/10).
func (l *LogicBlockArch) BlockCountFromLUTs(n int) int {
	return int(math.Ceil(float64(n) / float64(l.LBToLUT.B)))
}

// Archs bundles the RAM-block table with the logic-block fabric: the full
// architecture the mapper targets for one run.
type Archs struct {
	RamArchs map[int]*RamArch // keyed by arch id, starting at 1
	LBArch   *LogicBlockArch
}

// SortedRamArchIDs returns arch ids in ascending order, the deterministic
// iteration order required by candidate enumeration and serialization.
func (a *Archs) SortedRamArchIDs() []int {
	ids := make([]int, 0, len(a.RamArchs))
	for id := range a.RamArchs {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// ParseDescriptor parses the architecture descriptor string grammar:
//
//	arch  := group (" " group)*
//	group := "-l" a b          ; LUTRAM, per-LB ratio (a b)
//	      |  "-b" size maxw ra rb  ; BlockRAM: bits, max width, LB:block ratio
//
// arch_ids are assigned starting at 1 in token order.
func ParseDescriptor(s string) (*Archs, error) {
	fields, err := tokenizeGroups(s)
	if err != nil {
		return nil, err
	}

	archs := &Archs{RamArchs: map[int]*RamArch{}}
	var lutramRatio *Ratio
	id := 1
	for _, group := range fields {
		switch group[0] {
		case "-l":
			if len(group) != 3 {
				return nil, errors.Errorf("ramarch: -l group wants 2 ints, got %v", group[1:])
			}
			a, err1 := parseInt(group[1])
			b, err2 := parseInt(group[2])
			if err1 != nil || err2 != nil {
				return nil, errors.Errorf("ramarch: malformed -l ratio in %v", group)
			}
			ratio := Ratio{A: a, B: b}
			lutramRatio = &ratio
			archs.RamArchs[id] = NewLUTRAM(id, ratio)
			id++
		case "-b":
			if len(group) != 5 {
				return nil, errors.Errorf("ramarch: -b group wants 4 ints, got %v", group[1:])
			}
			size, err1 := parseInt(group[1])
			maxWidth, err2 := parseInt(group[2])
			a, err3 := parseInt(group[3])
			b, err4 := parseInt(group[4])
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
				return nil, errors.Errorf("ramarch: malformed -b group %v", group)
			}
			archs.RamArchs[id] = NewBlockRAM(id, size, maxWidth, Ratio{A: a, B: b})
			id++
		default:
			return nil, errors.Errorf("ramarch: unrecognized group token %q", group[0])
		}
	}
	archs.LBArch = NewLogicBlockArch(lutramRatio)
	return archs, nil
}

// DefaultDescriptor is the reference architecture: one LUTRAM slice per
// two LBs, an 8Kb BRAM and a 128Kb BRAM.
const DefaultDescriptor = "-l 1 1 -b 8192 32 10 1 -b 131072 128 300 1"

// GenerateDefault builds the reference architecture.
func GenerateDefault() *Archs {
	archs, err := ParseDescriptor(DefaultDescriptor)
	if err != nil {
		panic(errors.Wrap(err, "ramarch: default descriptor failed to parse"))
	}
	return archs
}

// tokenizeGroups splits the descriptor string into "-x ..." groups.
func tokenizeGroups(s string) ([][]string, error) {
	fields := strings.Fields(s)

	var groups [][]string
	var cur []string
	for _, f := range fields {
		if f == "-l" || f == "-b" {
			if len(cur) > 0 {
				groups = append(groups, cur)
			}
			cur = []string{f}
		} else {
			if len(cur) == 0 {
				return nil, errors.Errorf("ramarch: token %q outside any -l/-b group", f)
			}
			cur = append(cur, f)
		}
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	if len(groups) == 0 {
		return nil, errors.New("ramarch: empty architecture descriptor")
	}
	return groups, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
