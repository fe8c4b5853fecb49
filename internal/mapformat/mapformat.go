// Package mapformat parses the serialized mapping grammar, complementing
// maptree's Serialize methods so that serialize -> parse -> serialize is
// the identity on any legal mapping.
package mapformat

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xtaci/sivmap/internal/maptree"
	"github.com/xtaci/sivmap/internal/ramtype"
)

// Format renders acc using the same grammar maptree.AllCircuitConfig.Serialize
// produces, at indentation level 0 — the canonical top-level rendering.
func Format(acc *maptree.AllCircuitConfig) string {
	return acc.Serialize(0)
}

// Parse reads the mapping output grammar: a leading
// "// Num_Circuits N" banner followed by one rc_line per logical RAM.
// Comment lines (anything starting with "//" other than the banner) are
// ignored, mirroring the "// Circuit=.. Ram=.." annotations
// maptree.CircuitConfig.Serialize emits before each rc_line.
func Parse(data string) (*maptree.AllCircuitConfig, error) {
	numCircuits := -1
	var body []string
	for _, line := range strings.Split(data, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "//") {
			fields := strings.Fields(strings.TrimPrefix(trimmed, "//"))
			if len(fields) == 2 && fields[0] == "Num_Circuits" {
				n, err := strconv.Atoi(fields[1])
				if err != nil {
					return nil, errors.Wrap(err, "mapformat: malformed Num_Circuits banner")
				}
				numCircuits = n
			}
			continue
		}
		body = append(body, strings.Fields(line)...)
	}
	if numCircuits < 0 {
		return nil, errors.New("mapformat: missing \"// Num_Circuits N\" banner")
	}

	p := &parser{toks: body}
	acc := maptree.NewAllCircuitConfig()
	seen := map[int]bool{}
	for p.pos < len(p.toks) {
		rc, err := p.parseRamConfig()
		if err != nil {
			return nil, err
		}
		cc, ok := acc.Circuits[rc.CircuitID]
		if !ok {
			cc = maptree.NewCircuitConfig(rc.CircuitID)
			acc.Insert(cc)
		}
		cc.Insert(rc)
		seen[rc.CircuitID] = true
	}
	if len(seen) != numCircuits {
		return nil, errors.Errorf("mapformat: header declares Num_Circuits %d, body has %d", numCircuits, len(seen))
	}
	return acc, nil
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) next() (string, error) {
	if p.pos >= len(p.toks) {
		return "", errors.New("mapformat: unexpected end of input")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) peek() (string, error) {
	if p.pos >= len(p.toks) {
		return "", errors.New("mapformat: unexpected end of input")
	}
	return p.toks[p.pos], nil
}

func (p *parser) expect(literal string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t != literal {
		return errors.Errorf("mapformat: expected %q, got %q", literal, t)
	}
	return nil
}

func (p *parser) int() (int, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, errors.Wrapf(err, "mapformat: expected integer, got %q", t)
	}
	return n, nil
}

// parseRamConfig parses one rc_line: "circuit_id ram_id extra_luts lrc",
// and checks the parsed extra_luts against what the tree itself computes.
func (p *parser) parseRamConfig() (*maptree.RamConfig, error) {
	circuitID, err := p.int()
	if err != nil {
		return nil, errors.Wrap(err, "mapformat: circuit_id")
	}
	ramID, err := p.int()
	if err != nil {
		return nil, errors.Wrap(err, "mapformat: ram_id")
	}
	extraLUTs, err := p.int()
	if err != nil {
		return nil, errors.Wrap(err, "mapformat: extra_luts")
	}
	root, mode, err := p.parseLRC()
	if err != nil {
		return nil, err
	}
	rc := &maptree.RamConfig{CircuitID: circuitID, RamID: ramID, Mode: mode, Root: root}
	if got := rc.ExtraLUTs(); got != extraLUTs {
		return nil, errors.Errorf("mapformat: circuit %d ram %d: file says extra_luts=%d, tree computes %d", circuitID, ramID, extraLUTs, got)
	}
	return rc, nil
}

// parseLRC parses one lrc: "LW w LD d" followed by either a prc or a
// clrc, returning the node and the port mode it was built with (taken from
// the leaf directly, or from the left child for a split).
func (p *parser) parseLRC() (*maptree.LogicalRamConfig, ramtype.RamMode, error) {
	if err := p.expect("LW"); err != nil {
		return nil, 0, err
	}
	w, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: LW")
	}
	if err := p.expect("LD"); err != nil {
		return nil, 0, err
	}
	d, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: LD")
	}
	logicalShape := ramtype.RamShape{Width: w, Depth: d}

	tok, err := p.peek()
	if err != nil {
		return nil, 0, err
	}
	switch tok {
	case "ID":
		leaf, mode, err := p.parsePRC()
		if err != nil {
			return nil, 0, err
		}
		return maptree.NewLeafConfig(logicalShape, leaf), mode, nil
	case "series", "parallel":
		p.next()
		dim := maptree.Series
		if tok == "parallel" {
			dim = maptree.Parallel
		}
		left, mode, err := p.parseLRC()
		if err != nil {
			return nil, 0, err
		}
		right, _, err := p.parseLRC()
		if err != nil {
			return nil, 0, err
		}
		node := &maptree.Split{Dimension: dim, Left: left, Right: right}
		return &maptree.LogicalRamConfig{LogicalShape: logicalShape, Node: node}, mode, nil
	default:
		return nil, 0, errors.Errorf("mapformat: expected \"ID\", \"series\" or \"parallel\", got %q", tok)
	}
}

// parsePRC parses one prc: "ID uid S s P p Type arch_id Mode mode W w D d".
func (p *parser) parsePRC() (*maptree.PhysicalRamConfig, ramtype.RamMode, error) {
	if err := p.expect("ID"); err != nil {
		return nil, 0, err
	}
	uid, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: ID")
	}
	if err := p.expect("S"); err != nil {
		return nil, 0, err
	}
	series, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: S")
	}
	if err := p.expect("P"); err != nil {
		return nil, 0, err
	}
	parallel, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: P")
	}
	if err := p.expect("Type"); err != nil {
		return nil, 0, err
	}
	archID, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: Type")
	}
	if err := p.expect("Mode"); err != nil {
		return nil, 0, err
	}
	modeTok, err := p.next()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: Mode")
	}
	mode, err := ramtype.ParseRamMode(modeTok)
	if err != nil {
		return nil, 0, err
	}
	if err := p.expect("W"); err != nil {
		return nil, 0, err
	}
	w, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: W")
	}
	if err := p.expect("D"); err != nil {
		return nil, 0, err
	}
	d, err := p.int()
	if err != nil {
		return nil, 0, errors.Wrap(err, "mapformat: D")
	}

	leaf := &maptree.PhysicalRamConfig{
		UID:           uid,
		Fit:           ramtype.RamShapeFit{NumSeries: series, NumParallel: parallel},
		ArchID:        archID,
		Mode:          mode,
		PhysicalShape: ramtype.RamShape{Width: w, Depth: d},
	}
	return leaf, mode, nil
}
