package solver

import (
	"math"
	"math/rand"
	"sort"

	"github.com/xtaci/sivmap/internal/candidate"
	"github.com/xtaci/sivmap/internal/costmodel"
	"github.com/xtaci/sivmap/internal/lutcost"
	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// archLeftoverBias is the probability the move picker biases its arch
// choice toward the arch with the largest leftover supply.
const archLeftoverBias = 0.4

// AnnealResult summarizes one annealer run, for the orchestrator's logging.
type AnnealResult struct {
	Name        string
	FinalArea   int64
	OuterLoops  int
	GreedyLoops int
	EarlyExit   bool
}

// Annealer runs simulated annealing plus a terminating greedy pass over a
// fixed move set. It owns a mutable CircuitConfig and keeps
// cached extra-LUT/block-count/area totals, updating them incrementally
// under single-leaf swaps rather than re-walking the whole circuit.
type Annealer struct {
	archs          *ramarch.Archs
	cc             *maptree.CircuitConfig
	logicBlocks    int
	moveSet        map[int][]candidate.Candidate
	ramIDs         []int // sorted keys of moveSet, fixed at construction
	rng            *rand.Rand
	allowEarlyExit bool
	enableSaveBest bool
	name           string
	effort         float64

	extraLUTsByRam  map[int]int
	blockCountByRam map[int]map[int]int
	totalExtraLUTs  int
	totalBlockCount map[int]int
	area            int64

	bestCC    *maptree.CircuitConfig
	bestArea  int64
	haveBest  bool
}

// NewAnnealer builds an annealer over cc using moveSet as the candidate
// pool: one locator-tagged list of candidates per ram id, where a split
// ram's list mixes LeftChild- and RightChild-tagged candidates.
func NewAnnealer(archs *ramarch.Archs, cc *maptree.CircuitConfig, logicBlocks int, moveSet map[int][]candidate.Candidate, seed int64, allowEarlyExit, enableSaveBest bool, name string, effort float64) *Annealer {
	an := &Annealer{
		archs:           archs,
		cc:              cc,
		logicBlocks:     logicBlocks,
		moveSet:         moveSet,
		rng:             rand.New(rand.NewSource(seed)),
		allowEarlyExit:  allowEarlyExit,
		enableSaveBest:  enableSaveBest,
		name:            name,
		effort:          effort,
		extraLUTsByRam:  map[int]int{},
		blockCountByRam: map[int]map[int]int{},
		totalBlockCount: map[int]int{},
	}
	for ramID := range moveSet {
		an.ramIDs = append(an.ramIDs, ramID)
	}
	sort.Ints(an.ramIDs)

	for _, ramID := range cc.SortedRamIDs() {
		rc := cc.Rams[ramID]
		e := rc.ExtraLUTs()
		b := rc.BlockCount()
		an.extraLUTsByRam[ramID] = e
		an.blockCountByRam[ramID] = b
		an.totalExtraLUTs += e
		for a, n := range b {
			an.totalBlockCount[a] += n
		}
	}
	an.area = costmodel.Evaluate(archs, logicBlocks, an.totalExtraLUTs, an.totalBlockCount, true).FPGAArea
	an.bestArea = an.area
	if enableSaveBest {
		// Seed the snapshot with the starting config so a run whose every
		// move worsens the area still restores to no worse than it began.
		an.bestCC = cc.Clone()
		an.haveBest = true
	}
	return an
}

func leafNodeAt(rc *maptree.RamConfig, loc candidate.Locator) *maptree.LogicalRamConfig {
	switch loc {
	case candidate.Root:
		return rc.Root
	case candidate.LeftChild:
		return rc.Root.Node.Left
	case candidate.RightChild:
		return rc.Root.Node.Right
	default:
		panic("solver: unrecognized locator")
	}
}

func sameCandidate(leaf *maptree.PhysicalRamConfig, c candidate.Candidate) bool {
	return leaf.ArchID == c.ArchID && leaf.Mode == c.Mode &&
		leaf.PhysicalShape == c.PhysicalShape && leaf.Fit == c.Fit
}

// localAreaOf is the standalone area contribution of one leaf on its own:
// its block cost plus the LB cost of the extra LUTs it alone needs, the
// tie-break for zero-delta moves.
func localAreaOf(archs *ramarch.Archs, leaf *maptree.PhysicalRamConfig, logicalWidth int, mode ramtype.RamMode) int64 {
	blockArea := int64(leaf.BlockCount()) * int64(archs.RamArchs[leaf.ArchID].Area)
	extra := lutcost.ExtraLUTs(leaf.Fit.NumSeries, logicalWidth, mode)
	lutArea := int64(archs.LBArch.BlockCountFromLUTs(extra)) * int64(archs.LBArch.Area)
	return blockArea + lutArea
}

// trial is the outcome of tentatively applying one candidate move, before
// the caller decides whether to commit or revert it.
type trial struct {
	ramID   int
	lrc     *maptree.LogicalRamConfig
	oldLeaf *maptree.PhysicalRamConfig
	newArea int64
	newE    int
	newB    map[int]int
	deltaE  int
}

// tryApply mutates the tree in place (the caller must commit or revert) and
// returns the resulting global area, ready for the acceptance decision.
func (an *Annealer) tryApply(ramID int, c candidate.Candidate) (*trial, bool) {
	rc := an.cc.Rams[ramID]
	lrc := leafNodeAt(rc, c.Locator)
	old := lrc.Leaf
	if sameCandidate(old, c) {
		return nil, false // ABORT_DUPLICATED
	}

	lrc.Leaf = &maptree.PhysicalRamConfig{
		UID:           old.UID,
		Fit:           c.Fit,
		ArchID:        c.ArchID,
		Mode:          c.Mode,
		PhysicalShape: c.PhysicalShape,
	}

	newE := rc.ExtraLUTs()
	newB := rc.BlockCount()
	deltaE := newE - an.extraLUTsByRam[ramID]

	tentativeE := an.totalExtraLUTs + deltaE
	tentativeB := make(map[int]int, len(an.totalBlockCount))
	for a, n := range an.totalBlockCount {
		tentativeB[a] = n
	}
	oldB := an.blockCountByRam[ramID]
	for a := range mergedKeys(oldB, newB) {
		tentativeB[a] += newB[a] - oldB[a]
	}

	newArea := costmodel.Evaluate(an.archs, an.logicBlocks, tentativeE, tentativeB, true).FPGAArea

	return &trial{ramID: ramID, lrc: lrc, oldLeaf: old, newArea: newArea, newE: newE, newB: newB, deltaE: deltaE}, true
}

func mergedKeys(a, b map[int]int) map[int]bool {
	keys := make(map[int]bool, len(a)+len(b))
	for k := range a {
		keys[k] = true
	}
	for k := range b {
		keys[k] = true
	}
	return keys
}

func (an *Annealer) revert(tr *trial) {
	tr.lrc.Leaf = tr.oldLeaf
}

func (an *Annealer) commit(tr *trial) {
	an.extraLUTsByRam[tr.ramID] = tr.newE
	an.blockCountByRam[tr.ramID] = tr.newB
	an.totalExtraLUTs += tr.deltaE
	an.totalBlockCount = recomputeTotal(an.blockCountByRam)
	an.area = tr.newArea
	if tr.newArea < an.bestArea {
		an.bestArea = tr.newArea
		if an.enableSaveBest {
			an.bestCC = an.cc.Clone()
			an.haveBest = true
		}
	}
}

func recomputeTotal(byRam map[int]map[int]int) map[int]int {
	total := map[int]int{}
	for _, b := range byRam {
		for a, n := range b {
			total[a] += n
		}
	}
	return total
}

// pickMove chooses a ram uniformly from the move set, then a candidate,
// biased toward the arch with the most leftover supply.
func (an *Annealer) pickMove() (int, candidate.Candidate) {
	ramID := an.ramIDs[an.rng.Intn(len(an.ramIDs))]
	cands := an.moveSet[ramID]

	if an.rng.Float64() < archLeftoverBias {
		leftover := costmodel.LeftoverSupply(an.archs, int(an.area), an.totalBlockCount)
		bestArch, have := -1, false
		for _, archID := range an.archs.SortedRamArchIDs() {
			if !have || leftover[archID] > leftover[bestArch] {
				bestArch, have = archID, true
			}
		}
		var biased []candidate.Candidate
		for _, c := range cands {
			if c.ArchID == bestArch {
				biased = append(biased, c)
			}
		}
		if len(biased) > 0 {
			return ramID, biased[an.rng.Intn(len(biased))]
		}
	}
	return ramID, cands[an.rng.Intn(len(cands))]
}

// Run executes the annealing loop followed by optional best-restore and the
// greedy terminator.
func (an *Annealer) Run() AnnealResult {
	if an.allowEarlyExit && an.area <= int64(an.logicBlocks) {
		return AnnealResult{Name: an.name, FinalArea: an.area, EarlyExit: true}
	}

	T0 := 50 * an.effort
	innerPerOuter := an.totalCandidates() * int(math.Ceil(20*an.effort))
	maxOuter := int(math.Ceil(20 * an.effort))

	step := 0
	outer := 0
	for {
		outer++
		accepted := 0
		for i := 0; i < innerPerOuter; i++ {
			temp := T0 / float64(step+1)
			if an.annealStep(temp) {
				accepted++
			}
			step++
			if an.allowEarlyExit && an.area <= int64(an.logicBlocks) {
				return AnnealResult{Name: an.name, FinalArea: an.area, OuterLoops: outer, EarlyExit: true}
			}
		}
		ratio := 0.0
		if innerPerOuter > 0 {
			ratio = float64(accepted) / float64(innerPerOuter)
		}
		if ratio <= 0.1 || outer >= maxOuter {
			break
		}
	}

	if an.enableSaveBest && an.haveBest {
		an.cc = an.bestCC
		an.resyncCaches()
	}

	loops := an.greedyTerminate()
	return AnnealResult{Name: an.name, FinalArea: an.area, OuterLoops: outer, GreedyLoops: loops}
}

func (an *Annealer) totalCandidates() int {
	n := 0
	for _, c := range an.moveSet {
		n += len(c)
	}
	return n
}

// resyncCaches rebuilds per-ram/total caches after cc was swapped out from
// under the annealer (the best-so-far restore).
func (an *Annealer) resyncCaches() {
	an.extraLUTsByRam = map[int]int{}
	an.blockCountByRam = map[int]map[int]int{}
	an.totalExtraLUTs = 0
	an.totalBlockCount = map[int]int{}
	for _, ramID := range an.cc.SortedRamIDs() {
		rc := an.cc.Rams[ramID]
		e := rc.ExtraLUTs()
		b := rc.BlockCount()
		an.extraLUTsByRam[ramID] = e
		an.blockCountByRam[ramID] = b
		an.totalExtraLUTs += e
		for a, n := range b {
			an.totalBlockCount[a] += n
		}
	}
	an.area = costmodel.Evaluate(an.archs, an.logicBlocks, an.totalExtraLUTs, an.totalBlockCount, true).FPGAArea
}

// annealStep tries one random move: strictly-improving moves are always
// accepted, equal-area moves accepted on a local-area tie-break, worse
// moves accepted probabilistically.
func (an *Annealer) annealStep(temp float64) bool {
	ramID, c := an.pickMove()
	tr, ok := an.tryApply(ramID, c)
	if !ok {
		return false // ABORT_DUPLICATED
	}

	delta := tr.newArea - an.area
	accept := false
	switch {
	case delta < 0:
		accept = true
	case delta == 0:
		rc := an.cc.Rams[ramID]
		width := tr.lrc.LogicalShape.Width
		oldLocal := localAreaOf(an.archs, tr.oldLeaf, width, rc.Mode)
		newLocal := localAreaOf(an.archs, tr.lrc.Leaf, width, rc.Mode)
		accept = newLocal < oldLocal
	default:
		if an.area > 0 {
			p := math.Exp(-(float64(delta) / float64(an.area)) / temp)
			accept = an.rng.Float64() < p
		}
	}

	if accept {
		an.commit(tr)
		return true
	}
	an.revert(tr)
	return false
}

// greedyTerminate repeatedly scans every (ram, candidate) pair in
// deterministic order, accepting any strictly-improving move, until a full
// pass makes no change.
func (an *Annealer) greedyTerminate() int {
	loops := 0
	for {
		loops++
		changed := false
		for _, ramID := range an.ramIDs {
			for _, c := range an.moveSet[ramID] {
				tr, ok := an.tryApply(ramID, c)
				if !ok {
					continue
				}
				if tr.newArea < an.area {
					an.commit(tr)
					changed = true
				} else {
					an.revert(tr)
				}
			}
		}
		if !changed {
			break
		}
	}
	return loops
}

// CircuitConfig returns the annealer's current (possibly mutated) config.
func (an *Annealer) CircuitConfig() *maptree.CircuitConfig {
	return an.cc
}
