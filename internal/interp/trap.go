package interp

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// trapSignals maps the POSIX signal names `trap` accepts to the os.Signal
// that delivers them (§4.4 trap); EXIT is a pseudo-signal with no OS
// counterpart and is dispatched directly by FireExitTrap instead.
var trapSignals = map[string]os.Signal{
	"INT":  os.Interrupt,
	"TERM": syscall.SIGTERM,
	"HUP":  syscall.SIGHUP,
	"QUIT": syscall.SIGQUIT,
}

// watchSignals starts a single goroutine forwarding the process's OS
// signals into ip.pending (§6 Concurrency: delivery into the interpreter
// proper happens synchronously between commands via checkTraps, not inside
// the signal handler itself, so a trap body never races a command already
// in flight).
func (ip *Interp) watchSignals() {
	names := make([]string, 0, len(trapSignals))
	sigs := make([]os.Signal, 0, len(trapSignals))
	for name, sig := range trapSignals {
		names = append(names, name)
		sigs = append(sigs, sig)
	}
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, sigs...)
	go func() {
		for sig := range ch {
			for i, s := range sigs {
				if s == sig {
					select {
					case ip.pending <- names[i]:
					default:
					}
				}
			}
		}
	}()
}

// checkTraps drains any pending signal names and runs their registered
// handler bodies (§4.4: "between commands the executor checks pending flags
// and runs the registered handler body"). A pending signal with no
// registered trap is simply dropped — the shell only calls signal.Notify
// for signals it is prepared to trap, so the OS default disposition never
// even reaches here.
func (ip *Interp) checkTraps() {
	for {
		select {
		case name := <-ip.pending:
			ip.fireTrap(name)
		default:
			return
		}
	}
}

// fireTrap runs the action registered for name, if any. A handler's own
// failure is reported to stderr but never propagates past the trap — a
// broken handler must not take down the shell it was meant to protect.
func (ip *Interp) fireTrap(name string) {
	action, ok := ip.Traps[name]
	if !ok || action == "" || action == "-" {
		return
	}
	prog, err := ip.parseSource(action)
	if err != nil {
		fmt.Fprintf(ip.Stderr, "trap: %s: %s\n", name, err)
		return
	}
	if _, err := ip.Run(prog); err != nil {
		if _, ok := err.(ExitSignal); ok {
			return
		}
		fmt.Fprintf(ip.Stderr, "trap: %s: %s\n", name, err)
	}
}

// FireExitTrap runs the registered EXIT trap exactly once. cmd/lusush calls
// this right before the process actually exits — on normal completion of a
// script/-c command/interactive session, or on `exit N` — since §4.4's EXIT
// pseudo-signal fires once per shell regardless of how many nested Run
// calls led there.
func (ip *Interp) FireExitTrap() {
	if ip.exitTrapFired {
		return
	}
	ip.exitTrapFired = true
	ip.fireTrap("EXIT")
}

// ReapBackgroundJobs blocks until every background job still outstanding
// finishes, collecting statuses nobody called `wait` for (§5: "background
// children whose status was not collected are reaped at shell exit").
func (ip *Interp) ReapBackgroundJobs() {
	ip.jobs.waitAll()
}
