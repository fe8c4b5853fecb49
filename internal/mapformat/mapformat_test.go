package mapformat

import (
	"testing"

	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramarch"
	"github.com/xtaci/sivmap/internal/ramtype"
	"github.com/xtaci/sivmap/internal/solver"
)

func TestFormatParseRoundTrip(t *testing.T) {
	archs := ramarch.GenerateDefault()
	lc := &ramtype.LogicalCircuit{
		CircuitID: 1,
		Rams: map[int]ramtype.LogicalRam{
			0: {CircuitID: 1, RamID: 0, Mode: ramtype.SinglePort, Shape: ramtype.RamShape{Width: 12, Depth: 40}},
			1: {CircuitID: 1, RamID: 1, Mode: ramtype.SimpleDualPort, Shape: ramtype.RamShape{Width: 8, Depth: 300}},
		},
		NumLogicBlocks: 50,
	}

	cc, err := solver.InitialSolve(archs, lc)
	if err != nil {
		t.Fatalf("InitialSolve: %v", err)
	}
	acc := maptree.NewAllCircuitConfig()
	acc.Insert(cc)

	text1 := Format(acc)
	parsed, err := Parse(text1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	text2 := Format(parsed)

	if text1 != text2 {
		t.Fatalf("serialize -> parse -> serialize is not the identity:\n--- first ---\n%s\n--- second ---\n%s", text1, text2)
	}
}

func TestParseRejectsBadHeaderCount(t *testing.T) {
	data := "// Num_Circuits 2\n1 0 0 LW 12 LD 40 ID 0 S 1 P 1 Type 1 Mode SinglePort W 20 D 32\n"
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error for a header/body count mismatch")
	}
}

func TestParseRejectsExtraLUTsMismatch(t *testing.T) {
	data := "// Num_Circuits 1\n1 0 999 LW 12 LD 40 ID 0 S 1 P 1 Type 1 Mode SinglePort W 20 D 32\n"
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error for an extra_luts mismatch")
	}
}

func TestParseRejectsMalformedToken(t *testing.T) {
	data := "// Num_Circuits 1\n1 0 0 LW 12 LD 40 ID 0 S 1 P 1 Type 1 Mode Bogus W 20 D 32\n"
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error for an unrecognized RamMode token")
	}
}
