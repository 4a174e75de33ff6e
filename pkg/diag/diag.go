// Package diag provides the diagnostic sink passed into a Compilation.
//
// The teacher (tinyrange-rtg) logs through package-level fmt.Fprintf calls;
// google-kati wraps a single logging backend (glog) behind a handful of
// free functions (LogAlways, Logf, Warn, Error) in log.go. zigc keeps that
// wrapper shape but turns it into an injectable value instead of a global,
// per spec.md's "Global logging: replace with a passed-in diagnostic sink."
package diag

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

// Sink receives diagnostics raised while a Compilation runs. Nothing in
// pkg/compilation or its collaborators calls fmt.Print* or glog directly —
// they all go through a Sink so tests can capture or silence output.
type Sink interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// glogSink is the default Sink, backed by glog the way google-kati's
// log.go wraps glog for LogAlways/Warn/Error.
type glogSink struct {
	verbose bool
}

// Default returns a Sink that logs through glog. When verbose is false,
// Debugf is a no-op (mirrors kati's katiLogFlag gate on Logf).
func Default(verbose bool) Sink {
	return &glogSink{verbose: verbose}
}

func (s *glogSink) Debugf(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	glog.Infof(format, args...)
}

func (s *glogSink) Warnf(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}

func (s *glogSink) Errorf(format string, args ...interface{}) {
	glog.Errorf(format, args...)
}

// Discard silences everything; used by tests that don't care about
// diagnostics and don't want to depend on glog's global flag state.
type discard struct{}

// Discard is a Sink that drops every message.
var Discard Sink = discard{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Warnf(string, ...interface{})  {}
func (discard) Errorf(string, ...interface{}) {}

// Stderr is a dependency-free Sink; cmd/zigc's build command uses it for
// its whole run and never parses glog's flags.
type stderrSink struct{ verbose bool }

// Stderr returns a Sink that writes straight to os.Stderr, bypassing glog.
func Stderr(verbose bool) Sink { return &stderrSink{verbose: verbose} }

func (s *stderrSink) Debugf(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "debug: "+format+"\n", args...)
}

func (s *stderrSink) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

func (s *stderrSink) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
