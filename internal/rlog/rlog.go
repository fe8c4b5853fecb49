// Package rlog is a small leveled wrapper over the standard library's log
// package: a package-level *log.Logger, a verbosity gate, and formatted
// helpers per level.
package rlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Level orders the four levels this package supports: ERROR < WARNING <
// INFO < DEBUG (smaller value means "logged at lower verbosity").
type Level int

const (
	Error Level = iota
	Warning
	Info
	Debug
)

func (l Level) String() string {
	switch l {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	case Debug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// LevelFromVerbosity maps CLI flags to a level: -q forces Error, zero -v
// flags gives Warning, one gives Info, two or more gives Debug.
func LevelFromVerbosity(verboseCount int, quiet bool) Level {
	switch {
	case quiet:
		return Error
	case verboseCount == 0:
		return Warning
	case verboseCount == 1:
		return Info
	default:
		return Debug
	}
}

var (
	std   = log.New(os.Stderr, "", log.LstdFlags)
	level = Warning
)

// Init sets the package-wide level and output; call once at startup before
// logging anything else.
func Init(lvl Level, out io.Writer) {
	level = lvl
	std.SetOutput(out)
}

func logAt(lvl Level, v ...interface{}) {
	if lvl > level {
		return
	}
	std.Println(append([]interface{}{lvl.String() + ":"}, v...)...)
}

func logfAt(lvl Level, format string, v ...interface{}) {
	if lvl > level {
		return
	}
	std.Printf("%s: %s", lvl.String(), fmt.Sprintf(format, v...))
}

func Debugln(v ...interface{})                 { logAt(Debug, v...) }
func Debugf(format string, v ...interface{})   { logfAt(Debug, format, v...) }
func Infoln(v ...interface{})                  { logAt(Info, v...) }
func Infof(format string, v ...interface{})    { logfAt(Info, format, v...) }
func Warningf(format string, v ...interface{}) { logfAt(Warning, format, v...) }
func Warningln(v ...interface{})               { logAt(Warning, v...) }
func Errorf(format string, v ...interface{})   { logfAt(Error, format, v...) }
func Errorln(v ...interface{})                 { logAt(Error, v...) }

// Fatal logs at Error regardless of the level gate, then exits 1.
func Fatal(v ...interface{}) {
	std.Println(append([]interface{}{Error.String() + ":"}, v...)...)
	os.Exit(1)
}

// Fatalf is the formatted form of Fatal.
func Fatalf(format string, v ...interface{}) {
	std.Printf("%s: %s", Error.String(), fmt.Sprintf(format, v...))
	os.Exit(1)
}
