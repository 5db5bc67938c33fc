// Package xtrace is the ambient logging layer: `set -x` command-trace
// echoing, `-v` verbose-input echoing, and executor debug tracing. Grounded
// on SPEC_FULL.md's ambient-stack decision to use
// github.com/sirupsen/logrus the way the pack's vippsas/sqlcode repo wires
// it — a package-level *logrus.Logger with a custom TextFormatter, field
// attachment per call site — while ordinary POSIX-facing stderr diagnostics
// (syntax errors, command-not-found) keep the teacher's plain fmt.Fprintf
// since those are protocol output, not operator-facing logs.
package xtrace

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger scoped to one shell instance, so `set -x`
// and `set -v` can be toggled independently per subshell without touching
// global state.
type Logger struct {
	log     *logrus.Logger
	xtrace  bool
	verbose bool
	ps4     string
}

// New creates a Logger writing to w (normally the shell's stderr).
func New(w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: !isTerminal(w)})
	return &Logger{log: l, ps4: "+ "}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// SetXtrace toggles `set -x` command echoing. logrus defaults to InfoLevel,
// which filters out the Debug-level calls Command/Input make below, so
// turning either trace mode on has to raise the level too or `set -x`/
// `set -v` would be silent no-ops even with the right call sites wired.
func (l *Logger) SetXtrace(on bool) {
	l.xtrace = on
	l.syncLevel()
}

// SetVerbose toggles `set -v` raw-input echoing.
func (l *Logger) SetVerbose(on bool) {
	l.verbose = on
	l.syncLevel()
}

// syncLevel raises the underlying logger to DebugLevel while either trace
// mode is active, and drops it back to the default otherwise so unrelated
// logging (none exists yet, but future ambient logging shouldn't inherit
// xtrace's verbosity) isn't affected.
func (l *Logger) syncLevel() {
	if l.xtrace || l.verbose {
		l.log.SetLevel(logrus.DebugLevel)
		return
	}
	l.log.SetLevel(logrus.InfoLevel)
}

// SetPS4 changes the xtrace prompt prefix (default "+ ").
func (l *Logger) SetPS4(ps4 string) { l.ps4 = ps4 }

// Command logs one about-to-execute simple command's expanded argv, the
// form `set -x` produces (§6 Non-goals note xtrace is an ambient concern
// carried regardless of the feature scope excluded elsewhere).
func (l *Logger) Command(depth int, argv []string) {
	if !l.xtrace {
		return
	}
	prefix := strings.Repeat(l.ps4[:1], depth) + l.ps4
	l.log.WithField("argv", argv).Debug(prefix + strings.Join(argv, " "))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Input logs one raw source line as read, the form `set -v` produces.
func (l *Logger) Input(line string) {
	if !l.verbose {
		return
	}
	l.log.Debug(line)
}

// Trace logs an executor-internal diagnostic event (pre-command debugger
// hook consumption, trap firing, signal delivery) at Trace level so it is
// silent unless the caller raises the logger's level explicitly.
func (l *Logger) Trace(event string, fields logrus.Fields) {
	l.log.WithFields(fields).Trace(event)
}

// SetLevel exposes the underlying logrus level for callers wiring a
// `--debug`/`-v`-style CLI flag (cmd/lusush).
func (l *Logger) SetLevel(level logrus.Level) { l.log.SetLevel(level) }
