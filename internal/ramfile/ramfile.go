// Package ramfile parses the two plain-text input files the host driver
// feeds the mapper: the logical-RAM list and the logic-block count per
// circuit.
package ramfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xtaci/sivmap/internal/ramtype"
)

// ParseLogicalRams reads the logical-RAM file:
//
//	"Num_Circuits" N
//	<header line>
//	circuit_id ram_id mode depth width      (repeated)
//
// Rows may arrive in any order; the result groups them by circuit_id with
// ram_id as the key, as LogicalCircuit.Rams expects. NumLogicBlocks is left
// zero here — Merge fills it in from ParseLogicBlockCounts' result.
func ParseLogicalRams(r io.Reader) (map[int]*ramtype.LogicalCircuit, error) {
	sc := bufio.NewScanner(r)

	n, err := readCountLine(sc, "Num_Circuits")
	if err != nil {
		return nil, err
	}
	if !sc.Scan() {
		return nil, errors.New("ramfile: logical-ram file missing header line")
	}

	circuits := map[int]*ramtype.LogicalCircuit{}
	lineNo := 2
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, errors.Errorf("ramfile: line %d: want 5 fields (circuit_id ram_id mode depth width), got %d", lineNo, len(fields))
		}
		circuitID, err1 := strconv.Atoi(fields[0])
		ramID, err2 := strconv.Atoi(fields[1])
		mode, err3 := ramtype.ParseRamMode(fields[2])
		depth, err4 := strconv.Atoi(fields[3])
		width, err5 := strconv.Atoi(fields[4])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, errors.Errorf("ramfile: line %d: malformed row %q", lineNo, line)
		}

		lc, ok := circuits[circuitID]
		if !ok {
			lc = &ramtype.LogicalCircuit{CircuitID: circuitID, Rams: map[int]ramtype.LogicalRam{}}
			circuits[circuitID] = lc
		}
		lc.Rams[ramID] = ramtype.LogicalRam{
			CircuitID: circuitID,
			RamID:     ramID,
			Mode:      mode,
			Shape:     ramtype.RamShape{Width: width, Depth: depth},
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "ramfile: reading logical-ram file")
	}
	if len(circuits) != n {
		return nil, errors.Errorf("ramfile: header declares Num_Circuits %d, body has %d distinct circuit ids", n, len(circuits))
	}
	return circuits, nil
}

// ParseLogicBlockCounts reads the logic-block file:
//
//	<header line>
//	circuit_id num_logic_blocks      (repeated)
func ParseLogicBlockCounts(r io.Reader) (map[int]int, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, errors.New("ramfile: logic-block file missing header line")
	}

	counts := map[int]int{}
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Errorf("ramfile: line %d: want 2 fields (circuit_id num_logic_blocks), got %d", lineNo, len(fields))
		}
		circuitID, err1 := strconv.Atoi(fields[0])
		n, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return nil, errors.Errorf("ramfile: line %d: malformed row %q", lineNo, line)
		}
		counts[circuitID] = n
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "ramfile: reading logic-block file")
	}
	return counts, nil
}

// Merge combines a logical-RAM parse with a logic-block parse; the two
// files must name exactly the same circuits.
func Merge(circuits map[int]*ramtype.LogicalCircuit, logicBlocks map[int]int) error {
	for id, lc := range circuits {
		n, ok := logicBlocks[id]
		if !ok {
			return errors.Errorf("ramfile: circuit %d has logical RAMs but no logic-block count", id)
		}
		lc.NumLogicBlocks = n
	}
	for id := range logicBlocks {
		if _, ok := circuits[id]; !ok {
			return errors.Errorf("ramfile: circuit %d has a logic-block count but no logical RAMs", id)
		}
	}
	return nil
}

func readCountLine(sc *bufio.Scanner, label string) (int, error) {
	if !sc.Scan() {
		return 0, errors.Errorf("ramfile: missing %q line", label)
	}
	fields := strings.Fields(sc.Text())
	if len(fields) != 2 || fields[0] != label {
		return 0, errors.Errorf("ramfile: expected %q line, got %q", label, sc.Text())
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, errors.Wrapf(err, "ramfile: malformed %s count", label)
	}
	return n, nil
}
