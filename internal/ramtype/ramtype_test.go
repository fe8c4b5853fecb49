package ramtype

import "testing"

func TestRamModePortCount(t *testing.T) {
	cases := []struct {
		mode RamMode
		want int
	}{
		{ROM, 1},
		{SinglePort, 1},
		{SimpleDualPort, 2},
		{TrueDualPort, 2},
	}
	for _, c := range cases {
		if got := c.mode.PortCount(); got != c.want {
			t.Fatalf("PortCount(%v) = %d, want %d", c.mode, got, c.want)
		}
	}
}

func TestRamModeHas(t *testing.T) {
	supported := ROM | SinglePort | SimpleDualPort
	if !supported.Has(SinglePort) {
		t.Fatalf("expected SinglePort to be supported")
	}
	if supported.Has(TrueDualPort) {
		t.Fatalf("did not expect TrueDualPort to be supported")
	}
}

func TestParseRamMode(t *testing.T) {
	for _, name := range []string{"ROM", "SinglePort", "SimpleDualPort", "TrueDualPort"} {
		mode, err := ParseRamMode(name)
		if err != nil {
			t.Fatalf("ParseRamMode(%q) returned error: %v", name, err)
		}
		if mode.String() != name {
			t.Fatalf("round-trip mismatch: %q -> %v -> %q", name, mode, mode.String())
		}
	}
	if _, err := ParseRamMode("Bogus"); err == nil {
		t.Fatalf("expected error for unrecognized mode")
	}
}

func TestShapeFromSize(t *testing.T) {
	s := ShapeFromSize(480, 12)
	if s.Width != 12 || s.Depth != 40 {
		t.Fatalf("unexpected shape: %+v", s)
	}
}

func TestShapeFromSizeIndivisiblePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for indivisible size/width")
		}
	}()
	ShapeFromSize(10, 3)
}

func TestRamShapeFit(t *testing.T) {
	logical := RamShape{Width: 12, Depth: 45}
	physical := RamShape{Width: 20, Depth: 32}
	fit := logical.Fit(physical)
	if fit.NumSeries != 2 || fit.NumParallel != 1 {
		t.Fatalf("unexpected fit: %+v", fit)
	}
	if !fit.Legal() {
		t.Fatalf("expected fit to be legal")
	}
}

func TestRamShapeFitIllegal(t *testing.T) {
	logical := RamShape{Width: 1, Depth: 2000}
	physical := RamShape{Width: 1, Depth: 1}
	fit := logical.Fit(physical)
	if fit.Legal() {
		t.Fatalf("expected fit with num_series=%d to be illegal", fit.NumSeries)
	}
}

func TestRamShapeLess(t *testing.T) {
	small := RamShape{Width: 10, Depth: 10}  // size 100
	big := RamShape{Width: 20, Depth: 10}    // size 200
	tieA := RamShape{Width: 10, Depth: 20}   // size 200, width 10
	tieB := RamShape{Width: 20, Depth: 10}   // size 200, width 20
	if !small.Less(big) {
		t.Fatalf("expected %v < %v", small, big)
	}
	if !tieA.Less(tieB) {
		t.Fatalf("expected tie-break on width: %v < %v", tieA, tieB)
	}
}

func TestSortedRamIDs(t *testing.T) {
	lc := LogicalCircuit{
		CircuitID: 0,
		Rams: map[int]LogicalRam{
			3: {CircuitID: 0, RamID: 3},
			1: {CircuitID: 0, RamID: 1},
			2: {CircuitID: 0, RamID: 2},
		},
	}
	ids := lc.SortedRamIDs()
	want := []int{1, 2, 3}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("SortedRamIDs() = %v, want %v", ids, want)
		}
	}
}
