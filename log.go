package paratick

import (
	"github.com/intuitivelabs/slog"
)

// Log is the package-wide logger, at NOTICE level by default. SetVerbose
// (used by cmd/paratickd's -verbose flag) switches it to LDBG for tick
// tracing and back.
var Log slog.Log = slog.Log{
	Level:  slog.LNOTICE,
	Prefix: NAME + ": ",
}

func DBGon() bool  { return Log.DBGon() }
func ERRon() bool  { return Log.ERRon() }
func WARNon() bool { return Log.WARNon() }

func DBG(f string, a ...interface{})    { Log.DBG(f, a...) }
func NOTICE(f string, a ...interface{}) { Log.NOTICE(f, a...) }
func WARN(f string, a ...interface{})   { Log.WARN(f, a...) }
func ERR(f string, a ...interface{})    { Log.ERR(f, a...) }
func BUG(f string, a ...interface{})    { Log.BUG(f, a...) }
func PANIC(f string, a ...interface{})  { Log.PANIC(f, a...) }

// SetVerbose switches the package logger between NOTICE (default) and
// DBG (every oracle decision and idle transition) level.
func SetVerbose(on bool) {
	if on {
		slog.SetLevel(&Log, slog.LDBG)
	} else {
		slog.SetLevel(&Log, slog.LNOTICE)
	}
}
