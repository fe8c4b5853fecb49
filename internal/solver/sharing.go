package solver

import (
	"sort"

	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// leafRef names one leaf's location in the circuit: which ram owns it and
// the LogicalRamConfig node holding the leaf pointer (mutating lrc.Leaf in
// place is how a leaf gets replaced, whether it's a RAM's sole root or one
// child of a cliff split).
type leafRef struct {
	ramID int
	lrc   *maptree.LogicalRamConfig
}

// providerCandidate is a single-port leaf with spare rows in its physical
// block, eligible to host a second logical RAM as a true-dual-port block.
type providerCandidate struct {
	ref      leafRef
	freeBits int
}

type pairOption struct {
	receiver    leafRef
	savingRatio float64
}

// SharingResult is one accepted provider/receiver pairing.
type SharingResult struct {
	ProviderRamID int
	ReceiverRamID int
}

// SharingPass pairs single-port logical RAMs into shared true-dual-port
// physical blocks. Only leaves occupying exactly one physical block
// (Fit == {1,1}) participate; a RAM spread over several blocks has no
// single block to offer or borrow.
func SharingPass(archs *ramarch.Archs, cc *maptree.CircuitConfig) []SharingResult {
	var singlePort []leafRef
	for _, ramID := range cc.SortedRamIDs() {
		rc := cc.Rams[ramID]
		rc.Root.VisitLeaves(func(l *maptree.LogicalRamConfig) {
			if l.Leaf.Mode.PortCount() == 1 {
				singlePort = append(singlePort, leafRef{ramID: ramID, lrc: l})
			}
		})
	}

	var providers []providerCandidate
	for _, ref := range singlePort {
		leaf := ref.lrc.Leaf
		if leaf.Fit.NumSeries != 1 || leaf.Fit.NumParallel != 1 {
			continue
		}
		arch := archs.RamArchs[leaf.ArchID]
		if !arch.SupportedMode.Has(ramtype.TrueDualPort) {
			continue
		}
		if !shapeSupported(arch.ShapesFor(ramtype.TrueDualPort), leaf.PhysicalShape) {
			continue
		}
		freeDepth := leaf.PhysicalShape.Depth - ref.lrc.LogicalShape.Depth
		if freeDepth <= 0 {
			continue
		}
		providers = append(providers, providerCandidate{ref: ref, freeBits: freeDepth * leaf.PhysicalShape.Width})
	}

	var receivers []leafRef
	for _, ref := range singlePort {
		leaf := ref.lrc.Leaf
		if leaf.Fit.NumSeries == 1 && leaf.Fit.NumParallel == 1 {
			receivers = append(receivers, ref)
		}
	}

	grouped := map[int][]pairOption{}
	providerByUID := map[int]providerCandidate{}
	for _, p := range providers {
		providerByUID[p.ref.lrc.Leaf.UID] = p
		block := p.ref.lrc.Leaf.PhysicalShape
		providerDepth := p.ref.lrc.LogicalShape.Depth
		for _, r := range receivers {
			if r.ramID == p.ref.ramID {
				continue
			}
			if r.lrc.LogicalShape.Width > block.Width {
				continue
			}
			if r.lrc.LogicalShape.Depth+providerDepth > block.Depth {
				continue
			}
			savedArea := int64(r.lrc.Leaf.BlockCount()) * int64(archs.RamArchs[r.lrc.Leaf.ArchID].Area)
			grouped[p.ref.lrc.Leaf.UID] = append(grouped[p.ref.lrc.Leaf.UID], pairOption{
				receiver:    r,
				savingRatio: float64(savedArea) / float64(p.freeBits),
			})
		}
	}

	used := map[int]bool{}
	var results []SharingResult
	for {
		providerUID, opts, ok := pickTightestProvider(providers, grouped, used)
		if !ok {
			break
		}
		best := pickBestReceiver(opts)

		p := providerByUID[providerUID]
		receiverUID := best.receiver.lrc.Leaf.UID
		p.ref.lrc.Leaf.Mode = ramtype.TrueDualPort
		best.receiver.lrc.Leaf = p.ref.lrc.Leaf

		results = append(results, SharingResult{ProviderRamID: p.ref.ramID, ReceiverRamID: best.receiver.ramID})
		used[providerUID] = true
		used[receiverUID] = true
	}
	return results
}

// pickTightestProvider returns the unused provider uid with the fewest
// still-available receiver options, ties broken by smallest uid.
func pickTightestProvider(providers []providerCandidate, grouped map[int][]pairOption, used map[int]bool) (int, []pairOption, bool) {
	uids := make([]int, 0, len(providers))
	for _, p := range providers {
		uids = append(uids, p.ref.lrc.Leaf.UID)
	}
	sort.Ints(uids)

	bestUID := -1
	var bestOpts []pairOption
	for _, uid := range uids {
		if used[uid] {
			continue
		}
		opts := availableOptions(grouped[uid], used)
		if len(opts) == 0 {
			continue
		}
		if bestUID == -1 || len(opts) < len(bestOpts) {
			bestUID, bestOpts = uid, opts
		}
	}
	return bestUID, bestOpts, bestUID != -1
}

func availableOptions(opts []pairOption, used map[int]bool) []pairOption {
	var out []pairOption
	for _, o := range opts {
		if !used[o.receiver.lrc.Leaf.UID] {
			out = append(out, o)
		}
	}
	return out
}

// pickBestReceiver returns the highest-saving-per-free-bit option, ties
// broken by smallest receiver uid.
func pickBestReceiver(opts []pairOption) pairOption {
	best := opts[0]
	for _, o := range opts[1:] {
		if o.savingRatio > best.savingRatio ||
			(o.savingRatio == best.savingRatio && o.receiver.lrc.Leaf.UID < best.receiver.lrc.Leaf.UID) {
			best = o
		}
	}
	return best
}

func shapeSupported(shapes []ramtype.RamShape, shape ramtype.RamShape) bool {
	for _, s := range shapes {
		if s == shape {
			return true
		}
	}
	return false
}
