// Package costmodel turns (extra LUTs, per-arch block counts, logic-block
// count) into required tile count and FPGA area, honoring LB:block ratios
// and LUTRAM's consumption of LB tiles.
package costmodel

import (
	"sort"

	"github.com/xtaci/sivmap/internal/ramarch"
)

// Qor ("quality of result") is the outcome of one cost evaluation.
type Qor struct {
	RequiredTiles int
	FPGAArea      int64 // area totals can exceed 32 bits on large tile budgets
}

// Evaluate computes required tile count and (optionally) FPGA area:
//
//  1. lb_for_extra = ceil(extraLUTs/10)
//  2. regular_lb_used = logicBlocks + lb_for_extra
//  3. aspect_tiles = max over archs of ceil(blockCount[a]*ratio.A/ratio.B)
//  4. lutram_lb_used = sum of blockCount[a] for LUTRAM archs
//  5. required_tiles = max(regular_lb_used + lutram_lb_used, aspect_tiles)
//  6. fpga_area = sum of block_count_a(required_tiles)*area_a + LB term,
//     or required_tiles itself as a proxy when skipArea is true.
func Evaluate(archs *ramarch.Archs, logicBlocks, extraLUTs int, blockCount map[int]int, skipArea bool) Qor {
	lbForExtra := archs.LBArch.BlockCountFromLUTs(extraLUTs)
	regularLBUsed := logicBlocks + lbForExtra

	aspectTiles := 0
	lutramLBUsed := 0
	for _, id := range sortedArchIDs(archs) {
		arch := archs.RamArchs[id]
		count := blockCount[id]
		if count == 0 {
			continue
		}
		minTiles := ceilDiv(count*arch.LBToBlock.A, arch.LBToBlock.B)
		if minTiles > aspectTiles {
			aspectTiles = minTiles
		}
		if arch.Kind == ramarch.LUTRAM {
			lutramLBUsed += count
		}
	}

	requiredTiles := regularLBUsed + lutramLBUsed
	if aspectTiles > requiredTiles {
		requiredTiles = aspectTiles
	}

	if skipArea {
		return Qor{RequiredTiles: requiredTiles, FPGAArea: int64(requiredTiles)}
	}

	var area int64
	for _, id := range sortedArchIDs(archs) {
		arch := archs.RamArchs[id]
		area += int64(arch.BlockCount(requiredTiles)) * int64(arch.Area)
	}
	area += int64(archs.LBArch.BlockCount(requiredTiles)) * int64(archs.LBArch.Area)

	return Qor{RequiredTiles: requiredTiles, FPGAArea: area}
}

// LeftoverSupply is supply_a(requiredTiles) - blockCount[a] for every ram
// arch: how many more blocks of each type the chip would still grant at
// the current tile budget.
func LeftoverSupply(archs *ramarch.Archs, requiredTiles int, blockCount map[int]int) map[int]int {
	leftover := make(map[int]int, len(archs.RamArchs))
	for id, arch := range archs.RamArchs {
		leftover[id] = arch.BlockCount(requiredTiles) - blockCount[id]
	}
	return leftover
}

func sortedArchIDs(archs *ramarch.Archs) []int {
	ids := make([]int, 0, len(archs.RamArchs))
	for id := range archs.RamArchs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
