package rlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFromVerbosity(t *testing.T) {
	cases := []struct {
		verbose int
		quiet   bool
		want    Level
	}{
		{0, true, Error},
		{0, false, Warning},
		{1, false, Info},
		{2, false, Debug},
		{5, false, Debug},
	}
	for _, c := range cases {
		if got := LevelFromVerbosity(c.verbose, c.quiet); got != c.want {
			t.Fatalf("LevelFromVerbosity(%d, %v) = %v, want %v", c.verbose, c.quiet, got, c.want)
		}
	}
}

func TestInitGatesLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Warning, &buf)

	Debugln("should not appear")
	Infoln("should not appear either")
	Warningln("this should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("lower-priority messages leaked through: %q", out)
	}
	if !strings.Contains(out, "this should appear") {
		t.Fatalf("expected the Warning-level message in output: %q", out)
	}
}

func TestInitRaisingLevelAllowsDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(Debug, &buf)

	Debugln("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("expected debug output at Debug level: %q", buf.String())
	}
}
