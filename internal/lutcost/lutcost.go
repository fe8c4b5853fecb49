// Package lutcost holds the pure LUT-overhead functions: the extra decode
// and multiplexer logic needed when a logical RAM is realized by several
// physical blocks composed in series.
package lutcost

import (
	"fmt"

	"github.com/xtaci/sivmap/internal/ramtype"
)

// WriteDecoderLUTs is the number of LUTs needed for the write-address
// decoder across r serial physical blocks.
func WriteDecoderLUTs(r int) int {
	switch {
	case r <= 1:
		return 0
	case r == 2:
		return 1
	default:
		return r
	}
}

// readMuxLUTsPerBitTable tabulates the per-bit read-multiplexer LUT cost
// for each serial depth. A single 4:1 mux fits a 6-LUT; deeper fan-ins
// cascade.
var readMuxLUTsPerBitTable = [...]int{
	1: 0,
	2: 1,
	3: 1,
	4: 1,
	5: 2,
	6: 2,
	7: 2,
	8: 3,
	9: 3,
	10: 3,
	11: 4,
	12: 4,
	13: 4,
	14: 5,
	15: 5,
	16: 5,
}

// ReadMuxLUTsPerBit returns the per-bit read-multiplexer LUT cost for r
// serial physical blocks, r in [1, 16].
func ReadMuxLUTsPerBit(r int) int {
	if r < 1 || r > ramtype.MaxSeries {
		panic(fmt.Sprintf("lutcost: read_mux_luts_per_bit(%d) out of [1,%d]", r, ramtype.MaxSeries))
	}
	return readMuxLUTsPerBitTable[r]
}

// ReadMuxLUTs is the total read-multiplexer LUT cost across a logical width.
func ReadMuxLUTs(r, width int) int {
	if width <= 0 {
		panic(fmt.Sprintf("lutcost: read_mux_luts width must be positive, got %d", width))
	}
	return width * ReadMuxLUTsPerBit(r)
}

// Accumulate folds a write-decoder LUT count and a read-mux LUT count
// according to the port topology of mode: a single read/write port counts
// once, true-dual-port duplicates both legs.
func Accumulate(writeLUTs, readLUTs int, mode ramtype.RamMode) int {
	switch mode {
	case ramtype.ROM:
		return readLUTs
	case ramtype.SinglePort, ramtype.SimpleDualPort:
		return readLUTs + writeLUTs
	case ramtype.TrueDualPort:
		return 2 * (readLUTs + writeLUTs)
	default:
		panic(fmt.Sprintf("lutcost: unsupported RamMode %v", mode))
	}
}

// ExtraLUTs is the total extra-LUT count for a leaf composed of numSeries
// physical blocks in series implementing a logical width in the given mode.
// A leaf with numSeries == 1 needs no decode/mux logic at all.
func ExtraLUTs(numSeries, logicalWidth int, mode ramtype.RamMode) int {
	if numSeries > ramtype.MaxSeries {
		panic(fmt.Sprintf("lutcost: num_series %d exceeds cap %d", numSeries, ramtype.MaxSeries))
	}
	if numSeries <= 1 {
		return 0
	}
	write := WriteDecoderLUTs(numSeries)
	read := ReadMuxLUTs(numSeries, logicalWidth)
	return Accumulate(write, read, mode)
}
