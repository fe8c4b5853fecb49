// Package maptree implements the recursive mapping tree that represents
// one logical RAM's chosen physical implementation, and
// the RamConfig/CircuitConfig/AllCircuitConfig containers that hold a
// circuit's full solution.
//
// The tree is modeled as a tagged variant (leaf | split) rather than as an
// interface hierarchy: LogicalRamConfig carries either a *PhysicalRamConfig
// leaf or a *Split, never both.
package maptree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xtaci/sivmap/internal/lutcost"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// SplitDimension is the axis a Split node composes its children along.
type SplitDimension int

const (
	Series SplitDimension = iota
	Parallel
)

func (d SplitDimension) String() string {
	if d == Series {
		return "series"
	}
	return "parallel"
}

// PhysicalRamConfig is a leaf: one concrete physical-block configuration.
type PhysicalRamConfig struct {
	UID           int
	Fit           ramtype.RamShapeFit
	ArchID        int
	Mode          ramtype.RamMode
	PhysicalShape ramtype.RamShape
}

// Shape is the total footprint this leaf provides: fit.NumParallel copies
// wide, fit.NumSeries copies deep.
func (p *PhysicalRamConfig) Shape() ramtype.RamShape {
	return ramtype.RamShape{
		Width: p.Fit.NumParallel * p.PhysicalShape.Width,
		Depth: p.Fit.NumSeries * p.PhysicalShape.Depth,
	}
}

// BlockCount is the number of physical blocks of ArchID this leaf uses.
func (p *PhysicalRamConfig) BlockCount() int {
	return p.Fit.Count()
}

// Clone returns a structural copy, the deep-copy primitive the annealer's
// best-so-far snapshot relies on.
func (p *PhysicalRamConfig) Clone() *PhysicalRamConfig {
	c := *p
	return &c
}

func (p *PhysicalRamConfig) serialize() string {
	return fmt.Sprintf("ID %d S %d P %d Type %d Mode %s W %d D %d",
		p.UID, p.Fit.NumSeries, p.Fit.NumParallel, p.ArchID, p.Mode, p.PhysicalShape.Width, p.PhysicalShape.Depth)
}

// Split is an internal node: two children composed in series (deepening)
// or in parallel (widening).
type Split struct {
	Dimension SplitDimension
	Left      *LogicalRamConfig
	Right     *LogicalRamConfig
}

// Shape sums the children along Dimension, and must agree with them along
// the other axis.
func (s *Split) Shape() ramtype.RamShape {
	l, r := s.Left.Shape(), s.Right.Shape()
	if s.Dimension == Series {
		return ramtype.RamShape{Width: l.Width, Depth: l.Depth + r.Depth}
	}
	return ramtype.RamShape{Width: l.Width + r.Width, Depth: l.Depth}
}

func (s *Split) blockCount() map[int]int {
	return addBlockCounts(s.Left.BlockCount(), s.Right.BlockCount())
}

func (s *Split) clone() *Split {
	return &Split{Dimension: s.Dimension, Left: s.Left.Clone(), Right: s.Right.Clone()}
}

func (s *Split) serialize(level int) string {
	level++
	indent := indentStr(level)
	return fmt.Sprintf("%s\n%s%s\n%s%s", s.Dimension, indent, s.Left.serialize(level), indent, s.Right.serialize(level))
}

// LogicalRamConfig wraps a tree node (leaf or split) with the logical
// shape it must cover. Invariant: PhysicalShape() >= LogicalShape
// componentwise.
type LogicalRamConfig struct {
	LogicalShape ramtype.RamShape
	Leaf         *PhysicalRamConfig // mutually exclusive with Node
	Node         *Split
}

// NewLeafConfig wraps a physical leaf at the given logical shape.
func NewLeafConfig(logicalShape ramtype.RamShape, leaf *PhysicalRamConfig) *LogicalRamConfig {
	return &LogicalRamConfig{LogicalShape: logicalShape, Leaf: leaf}
}

// NewSplitConfig wraps a split node; its logical shape is derived from the
// combined child shape.
func NewSplitConfig(node *Split) *LogicalRamConfig {
	return &LogicalRamConfig{LogicalShape: node.Shape(), Node: node}
}

// IsLeaf reports whether this config is a leaf (as opposed to a split).
func (l *LogicalRamConfig) IsLeaf() bool {
	return l.Leaf != nil
}

// Shape is the node's declared logical shape.
func (l *LogicalRamConfig) Shape() ramtype.RamShape {
	return l.LogicalShape
}

// PhysicalShape is the node's actual physical footprint, which may exceed
// Shape() in either dimension (wasted bits, or a not-yet-split cliff).
func (l *LogicalRamConfig) PhysicalShape() ramtype.RamShape {
	if l.Leaf != nil {
		return l.Leaf.Shape()
	}
	return l.Node.Shape()
}

// BlockCount sums leaf contributions by arch id.
func (l *LogicalRamConfig) BlockCount() map[int]int {
	if l.Leaf != nil {
		return map[int]int{l.Leaf.ArchID: l.Leaf.BlockCount()}
	}
	return l.Node.blockCount()
}

// immediateNumSeries returns the leaf's own num_series if this node is
// itself a leaf, or (0, false) if it's a split (used by the parallel-split write
// decoder sharing credit).
func (l *LogicalRamConfig) immediateNumSeries() (int, bool) {
	if l.Leaf == nil {
		return 0, false
	}
	return l.Leaf.Fit.NumSeries, true
}

// ExtraLUTs computes the extra-LUT count: summed over leaves, plus a
// series-merge term per split, minus the parallel write-decoder-sharing
// correction when both children are leaves with equal num_series.
func (l *LogicalRamConfig) ExtraLUTs(mode ramtype.RamMode) int {
	if l.Leaf != nil {
		return lutcost.ExtraLUTs(l.Leaf.Fit.NumSeries, l.LogicalShape.Width, mode)
	}
	node := l.Node
	leftExtra := node.Left.ExtraLUTs(mode)
	rightExtra := node.Right.ExtraLUTs(mode)

	var correction int
	switch node.Dimension {
	case Series:
		correction = lutcost.ExtraLUTs(2, l.LogicalShape.Width, mode)
	case Parallel:
		leftSeries, leftOK := node.Left.immediateNumSeries()
		rightSeries, rightOK := node.Right.immediateNumSeries()
		if leftOK && rightOK && leftSeries == rightSeries {
			write := lutcost.WriteDecoderLUTs(leftSeries)
			correction = -lutcost.Accumulate(write, 0, mode)
		}
	}
	return leftExtra + rightExtra + correction
}

// VisitLeaves traverses left-then-right, invoking f on each leaf's
// containing LogicalRamConfig.
func (l *LogicalRamConfig) VisitLeaves(f func(*LogicalRamConfig)) {
	if l.Leaf != nil {
		f(l)
		return
	}
	l.Node.Left.VisitLeaves(f)
	l.Node.Right.VisitLeaves(f)
}

// Clone performs a structural (deep) copy. Before the sharing pass runs,
// leaves never alias, so a plain structural copy suffices;
// after sharing, CircuitConfig snapshots are taken only pre-sharing by
// convention (the sharing pass runs last in the orchestrator).
func (l *LogicalRamConfig) Clone() *LogicalRamConfig {
	c := &LogicalRamConfig{LogicalShape: l.LogicalShape}
	if l.Leaf != nil {
		c.Leaf = l.Leaf.Clone()
	} else {
		c.Node = l.Node.clone()
	}
	return c
}

func (l *LogicalRamConfig) serialize(level int) string {
	head := fmt.Sprintf("LW %d LD %d", l.LogicalShape.Width, l.LogicalShape.Depth)
	if l.Leaf != nil {
		return head + " " + l.Leaf.serialize()
	}
	return head + " " + l.Node.serialize(level)
}

// RamConfig is one logical RAM's chosen implementation within a circuit.
type RamConfig struct {
	CircuitID int
	RamID     int
	Mode      ramtype.RamMode
	Root      *LogicalRamConfig
}

// ExtraLUTs is the RAM's total extra-LUT count under its own mode.
func (r *RamConfig) ExtraLUTs() int {
	return r.Root.ExtraLUTs(r.Mode)
}

// BlockCount delegates to the tree root.
func (r *RamConfig) BlockCount() map[int]int {
	return r.Root.BlockCount()
}

func (r *RamConfig) Clone() *RamConfig {
	return &RamConfig{CircuitID: r.CircuitID, RamID: r.RamID, Mode: r.Mode, Root: r.Root.Clone()}
}

// Serialize renders one rc_line: "circuit_id ram_id extra_luts lrc".
func (r *RamConfig) Serialize(level int) string {
	return fmt.Sprintf("%d %d %d %s", r.CircuitID, r.RamID, r.ExtraLUTs(), r.Root.serialize(level))
}

// CircuitConfig is the set of RamConfigs for one circuit.
type CircuitConfig struct {
	CircuitID int
	Rams      map[int]*RamConfig // keyed by RamID
}

// NewCircuitConfig creates an empty config for circuitID.
func NewCircuitConfig(circuitID int) *CircuitConfig {
	return &CircuitConfig{CircuitID: circuitID, Rams: map[int]*RamConfig{}}
}

// Insert adds or replaces a ram's config; rc.CircuitID must match.
func (c *CircuitConfig) Insert(rc *RamConfig) {
	if rc.CircuitID != c.CircuitID {
		panic(fmt.Sprintf("maptree: circuit id mismatch inserting ram %d: got %d, want %d", rc.RamID, rc.CircuitID, c.CircuitID))
	}
	c.Rams[rc.RamID] = rc
}

// SortedRamIDs returns this circuit's ram IDs in ascending order.
func (c *CircuitConfig) SortedRamIDs() []int {
	ids := make([]int, 0, len(c.Rams))
	for id := range c.Rams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// BlockCount sums every leaf's contribution by arch id, counting a shared
// leaf (same UID referenced by two RamConfigs, post-sharing) once per
// reference — use UniqueBlockCount after the sharing pass instead.
func (c *CircuitConfig) BlockCount() map[int]int {
	total := map[int]int{}
	for _, id := range c.SortedRamIDs() {
		total = addBlockCounts(total, c.Rams[id].BlockCount())
	}
	return total
}

// UniqueBlockCount counts each distinct leaf UID once, so a shared
// true-dual-port block (two RamConfigs pointing at the same leaf after the
// sharing pass) is billed only once.
func (c *CircuitConfig) UniqueBlockCount() map[int]int {
	byUID := map[int]*PhysicalRamConfig{}
	visitor := func(lrc *LogicalRamConfig) {
		byUID[lrc.Leaf.UID] = lrc.Leaf
	}
	for _, id := range c.SortedRamIDs() {
		c.Rams[id].Root.VisitLeaves(visitor)
	}
	total := map[int]int{}
	for _, uid := range sortedUIDs(byUID) {
		leaf := byUID[uid]
		total[leaf.ArchID] += leaf.BlockCount()
	}
	return total
}

// ExtraLUTs sums every ram's extra-LUT count.
func (c *CircuitConfig) ExtraLUTs() int {
	total := 0
	for _, id := range c.SortedRamIDs() {
		total += c.Rams[id].ExtraLUTs()
	}
	return total
}

// Clone performs a deep structural copy for annealing's best-so-far
// rollback.
func (c *CircuitConfig) Clone() *CircuitConfig {
	clone := NewCircuitConfig(c.CircuitID)
	for _, id := range c.SortedRamIDs() {
		clone.Rams[id] = c.Rams[id].Clone()
	}
	return clone
}

// Serialize renders every ram's rc_line in ascending ram_id order.
func (c *CircuitConfig) Serialize(level int) string {
	var b strings.Builder
	for _, id := range c.SortedRamIDs() {
		fmt.Fprintf(&b, "// Circuit=%d Ram=%d\n", c.CircuitID, id)
		b.WriteString(c.Rams[id].Serialize(level))
		b.WriteString("\n")
	}
	return b.String()
}

// AllCircuitConfig is the full solved output: every circuit's config.
type AllCircuitConfig struct {
	Circuits map[int]*CircuitConfig // keyed by circuit id
}

// NewAllCircuitConfig creates an empty aggregate.
func NewAllCircuitConfig() *AllCircuitConfig {
	return &AllCircuitConfig{Circuits: map[int]*CircuitConfig{}}
}

// Insert adds or replaces a circuit's config.
func (a *AllCircuitConfig) Insert(cc *CircuitConfig) {
	a.Circuits[cc.CircuitID] = cc
}

// SortedCircuitIDs returns circuit ids in ascending order, the
// deterministic serialization order of the output file.
func (a *AllCircuitConfig) SortedCircuitIDs() []int {
	ids := make([]int, 0, len(a.Circuits))
	for id := range a.Circuits {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Serialize renders the full mapping output grammar, leading with the
// "// Num_Circuits N" banner.
func (a *AllCircuitConfig) Serialize(level int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s// Num_Circuits %d\n", indentStr(level), len(a.Circuits))
	for _, id := range a.SortedCircuitIDs() {
		b.WriteString(a.Circuits[id].Serialize(level))
	}
	return b.String()
}

func indentStr(level int) string {
	return strings.Repeat(" ", 4*level)
}

func addBlockCounts(a, b map[int]int) map[int]int {
	if a == nil {
		a = map[int]int{}
	}
	out := make(map[int]int, len(a))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

func sortedUIDs(m map[int]*PhysicalRamConfig) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
