package interp

import (
	"fmt"
	"os"

	"github.com/lusush/lusush/internal/builtin"
)

// ctxAdapter satisfies builtin.Context by forwarding to the owning Interp,
// kept as a separate small type rather than implementing the interface on
// *Interp itself so the executor's much larger internal surface doesn't
// leak into the builtin package's view of it (§5: builtins see only the
// Context interface, never *Interp).
type ctxAdapter struct{ ip *Interp }

func (ip *Interp) builtinCtx() builtin.Context { return ctxAdapter{ip: ip} }

// io.Writer/io.Reader already satisfy builtin.StreamWriter/StreamReader
// structurally (identical single-method signatures), so no adapter type is
// needed here beyond the interface conversion itself.
func (c ctxAdapter) Stdout() builtin.StreamWriter { return c.ip.Stdout }
func (c ctxAdapter) Stderr() builtin.StreamWriter { return c.ip.Stderr }
func (c ctxAdapter) Stdin() builtin.StreamReader  { return c.ip.Stdin }

func (c ctxAdapter) Getenv(name string) (string, bool) {
	sym, ok := c.ip.Scope.Lookup(name)
	return sym.Value, ok
}

func (c ctxAdapter) Setenv(name, value string) error { return c.ip.Scope.Set(name, value) }
func (c ctxAdapter) Unsetenv(name string) error      { return c.ip.Scope.Unset(name) }

func (c ctxAdapter) Exported() []string {
	var out []string
	for _, sym := range c.ip.Scope.Exported() {
		out = append(out, sym.Name+"="+sym.Value)
	}
	return out
}

func (c ctxAdapter) WorkDir() string { return c.ip.workdir }

func (c ctxAdapter) Chdir(dir string) error {
	if err := os.Chdir(dir); err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	c.ip.workdir = wd
	return nil
}

func (c ctxAdapter) Exit(code int) error { return ExitSignal{Code: code} }

type optsView struct{ o *Options }

func (v optsView) IsSet(name string) bool { return v.o.IsSet(name) }
func (v optsView) Names() []string        { return v.o.Names() }

func (c ctxAdapter) ShellOpts() builtin.OptionsView        { return optsView{&c.ip.Opts} }
func (c ctxAdapter) SetOption(name string, on bool) error { return c.ip.SetOption(name, on) }

func (c ctxAdapter) Args() []string      { return c.ip.Positional }
func (c ctxAdapter) SetArgs(a []string)  { c.ip.Positional = a }

func (c ctxAdapter) LookupFunc(name string) (builtin.Runnable, bool) {
	_, ok := c.ip.Funcs[name]
	if !ok {
		return nil, false
	}
	return funcRunner{ip: c.ip, name: name}, true
}

type funcRunner struct {
	ip   *Interp
	name string
}

func (r funcRunner) Run(ctx builtin.Context, args []string) (int, error) {
	fn, ok := r.ip.Funcs[r.name]
	if !ok {
		return 1, fmt.Errorf("%s: function not found", r.name)
	}
	return r.ip.callFunction(fn, append([]string{r.name}, args...))
}

func (c ctxAdapter) LookupAlias(name string) (string, bool) {
	v, ok := c.ip.Aliases[name]
	return v, ok
}

func (c ctxAdapter) SetAlias(name, value string) { c.ip.Aliases[name] = value }
func (c ctxAdapter) UnsetAlias(name string)       { delete(c.ip.Aliases, name) }
func (c ctxAdapter) AllAliases() map[string]string {
	out := make(map[string]string, len(c.ip.Aliases))
	for k, v := range c.ip.Aliases {
		out[k] = v
	}
	return out
}

func (c ctxAdapter) PushTrap(sig, action string) { c.ip.Traps[sig] = action }
func (c ctxAdapter) Traps() map[string]string {
	out := make(map[string]string, len(c.ip.Traps))
	for k, v := range c.ip.Traps {
		out[k] = v
	}
	return out
}

func (c ctxAdapter) Source(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prog, err := c.ip.parseSource(string(data))
	if err != nil {
		return err
	}
	_, err = c.ip.Run(prog)
	return err
}

func (c ctxAdapter) Eval(src string) error {
	prog, err := c.ip.parseSource(src)
	if err != nil {
		return err
	}
	_, err = c.ip.Run(prog)
	return err
}

func (c ctxAdapter) Exec(argv []string) error {
	status, err := c.ip.runExternal(argv)
	if err != nil {
		return err
	}
	return ExitSignal{Code: status}
}

func (c ctxAdapter) BreakLoop(n int) error    { return breakSignal{n: n} }
func (c ctxAdapter) ContinueLoop(n int) error { return continueSignal{n: n} }
func (c ctxAdapter) ReturnFunc(code int) error {
	return returnSignal{code: code}
}
func (c ctxAdapter) CallDepth() int { return c.ip.callDepth }

func (c ctxAdapter) Wait(pid int) (int, bool) { return c.ip.jobs.wait(pid) }
func (c ctxAdapter) WaitAll() []int           { return c.ip.jobs.waitAll() }
