package costmodel

import (
	"testing"

	"github.com/xtaci/sivmap/internal/ramarch"
)

func TestEvaluateAreaFixture(t *testing.T) {
	// Against the default architecture: 8 LUTRAM
	// blocks (arch 1) and 2 of the 8192-bit BlockRAM (arch 2) in use.
	archs := ramarch.GenerateDefault()
	blockCount := map[int]int{1: 8, 2: 2}

	qor := Evaluate(archs, 20, 33, blockCount, false)
	if qor.RequiredTiles != 32 {
		t.Fatalf("RequiredTiles = %d, want 32", qor.RequiredTiles)
	}
	if qor.FPGAArea != 1489518 {
		t.Fatalf("FPGAArea = %d, want 1489518", qor.FPGAArea)
	}
}

func TestEvaluateSkipAreaReturnsTilesAsProxy(t *testing.T) {
	archs := ramarch.GenerateDefault()
	blockCount := map[int]int{1: 8, 2: 2}

	qor := Evaluate(archs, 20, 33, blockCount, true)
	if qor.RequiredTiles != 32 {
		t.Fatalf("RequiredTiles = %d, want 32", qor.RequiredTiles)
	}
	if qor.FPGAArea != int64(qor.RequiredTiles) {
		t.Fatalf("FPGAArea = %d, want proxy value %d", qor.FPGAArea, qor.RequiredTiles)
	}
}

func TestEvaluateEmptyBlockCountUsesOnlyRegularLBs(t *testing.T) {
	archs := ramarch.GenerateDefault()

	qor := Evaluate(archs, 5, 0, map[int]int{}, true)
	if qor.RequiredTiles != 5 {
		t.Fatalf("RequiredTiles = %d, want 5", qor.RequiredTiles)
	}
}

func TestLeftoverSupply(t *testing.T) {
	archs := ramarch.GenerateDefault()
	blockCount := map[int]int{1: 8, 2: 2}
	qor := Evaluate(archs, 20, 33, blockCount, true)

	leftover := LeftoverSupply(archs, qor.RequiredTiles, blockCount)
	// arch 1 (LUTRAM, ratio 2:1): supply at 32 tiles = floor(32*1/2) = 16; used 8.
	if leftover[1] != 16-8 {
		t.Fatalf("leftover[1] = %d, want %d", leftover[1], 16-8)
	}
	// arch 3 (131072-bit BlockRAM, ratio 300:1): supply at 32 tiles = floor(32*1/300) = 0; used 0.
	if leftover[3] != 0 {
		t.Fatalf("leftover[3] = %d, want 0", leftover[3])
	}
}
