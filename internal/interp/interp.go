// Package interp is the executor: it walks the AST the parser produced,
// expanding words through internal/expand and running simple commands
// either in-process (builtins, functions) or via os/exec (external
// programs), wiring pipelines through direct os.Pipe()s exactly the way
// the teacher's runtime/executor.executePipeline does (§5 Executor, §6
// Concurrency/Process Model). Control flow (break/continue/return/exit) is
// threaded back up the call stack as typed sentinel errors rather than
// panics, since every Run call already returns an error for ordinary
// command failures.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lusush/lusush/internal/arith"
	"github.com/lusush/lusush/internal/ast"
	"github.com/lusush/lusush/internal/builtin"
	"github.com/lusush/lusush/internal/errs"
	"github.com/lusush/lusush/internal/expand"
	"github.com/lusush/lusush/internal/symtable"
	"github.com/lusush/lusush/internal/xtrace"
)

// breakSignal/continueSignal/returnSignal/exitSignal are the control-flow
// sentinels loops, functions, and the top-level driver intercept (§5
// Control flow, §7 SignalErr).
type breakSignal struct{ n int }

func (breakSignal) Error() string { return "break" }

type continueSignal struct{ n int }

func (continueSignal) Error() string { return "continue" }

type returnSignal struct{ code int }

func (returnSignal) Error() string { return "return" }

// ExitSignal is exported so cmd/lusush can distinguish a script-requested
// exit from an execution error when deciding the process exit code.
type ExitSignal struct{ Code int }

func (e ExitSignal) Error() string { return "exit" }

// Options is the `set -o`/short-flag toggle set (§6).
type Options struct {
	Errexit    bool
	Nounset    bool
	Noglob     bool
	Pipefail   bool
	Xtrace     bool
	Verbose    bool
	Noexec     bool
	Noclobber  bool
	Allexport  bool
	Monitor    bool
	Notify     bool
	Hashall    bool
	PosixMode  bool
}

func (o *Options) IsSet(name string) bool {
	switch name {
	case "errexit":
		return o.Errexit
	case "nounset":
		return o.Nounset
	case "noglob":
		return o.Noglob
	case "pipefail":
		return o.Pipefail
	case "xtrace":
		return o.Xtrace
	case "verbose":
		return o.Verbose
	case "noexec":
		return o.Noexec
	case "noclobber":
		return o.Noclobber
	case "allexport":
		return o.Allexport
	case "monitor":
		return o.Monitor
	case "notify":
		return o.Notify
	case "hashall":
		return o.Hashall
	case "posix":
		return o.PosixMode
	}
	return false
}

func (o *Options) Set(name string, on bool) error {
	switch name {
	case "errexit":
		o.Errexit = on
	case "nounset":
		o.Nounset = on
	case "noglob":
		o.Noglob = on
	case "pipefail":
		o.Pipefail = on
	case "xtrace":
		o.Xtrace = on
	case "verbose":
		o.Verbose = on
	case "noexec":
		o.Noexec = on
	case "noclobber":
		o.Noclobber = on
	case "allexport":
		o.Allexport = on
	case "monitor":
		o.Monitor = on
	case "notify":
		o.Notify = on
	case "hashall":
		o.Hashall = on
	case "posix":
		o.PosixMode = on
	default:
		return fmt.Errorf("%s: no such option", name)
	}
	return nil
}

func (o *Options) Names() []string {
	return []string{"errexit", "nounset", "noglob", "pipefail", "xtrace", "verbose",
		"noexec", "noclobber", "allexport", "monitor", "notify", "hashall", "posix"}
}

func (o *Options) letters() string {
	var b strings.Builder
	table := []struct {
		on bool
		c  byte
	}{
		{o.Errexit, 'e'}, {o.Nounset, 'u'}, {o.Xtrace, 'x'}, {o.Verbose, 'v'},
		{o.Noexec, 'n'}, {o.Noglob, 'f'}, {o.Noclobber, 'C'}, {o.Allexport, 'a'},
		{o.Monitor, 'm'}, {o.Notify, 'b'}, {o.Hashall, 'h'},
	}
	for _, t := range table {
		if t.on {
			b.WriteByte(t.c)
		}
	}
	return b.String()
}

// Interp is one shell instance's executor state.
type Interp struct {
	Scope      *symtable.Scope
	Builtins   *builtin.Registry
	Funcs      map[string]*ast.FunctionDef
	Aliases    map[string]string
	Opts       Options
	Traps      map[string]string
	Log        *xtrace.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Positional []string
	ScriptName string
	LastStatus int
	LastBgPID  int
	ShellPID   int
	workdir    string
	callDepth  int

	jobs          *jobTable
	pending       chan string
	exitTrapFired bool

	errList *errs.List
}

// New creates a top-level interpreter rooted at the process's real
// environment (§5: the global scope frame is seeded from os.Environ so
// exported variables round-trip through child processes the ordinary way).
func New() *Interp {
	scope := symtable.NewGlobal()
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			name, val := kv[:i], kv[i+1:]
			scope.Declare(name, val, symtable.AttrExported)
		}
	}
	wd, _ := os.Getwd()
	scope.Set("PWD", wd)
	ip := &Interp{
		Scope:    scope,
		Builtins: builtin.Global(),
		Funcs:    map[string]*ast.FunctionDef{},
		Aliases:  map[string]string{},
		Traps:    map[string]string{},
		Log:      xtrace.New(os.Stderr),
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		ShellPID: os.Getpid(),
		workdir:  wd,
		jobs:     newJobTable(),
		pending:  make(chan string, 16),
		errList:  errs.NewList(50),
	}
	ip.watchSignals()
	return ip
}

// SetOption applies one `set -o`/short-flag toggle, keeping internal/xtrace
// in sync: xtrace/verbose also drive Logger's own on/off switch, which is
// what actually gates whether Command/Input log anything, so the CLI's
// startup flags and the `set` builtin both have to go through here rather
// than poking Opts directly (§6: set -x/-v take effect immediately).
func (ip *Interp) SetOption(name string, on bool) error {
	if err := ip.Opts.Set(name, on); err != nil {
		return err
	}
	switch name {
	case "xtrace":
		ip.Log.SetXtrace(on)
	case "verbose":
		ip.Log.SetVerbose(on)
	}
	return nil
}

func (ip *Interp) expander() *expand.Env {
	return &expand.Env{
		Scope:       ip.Scope,
		Positional:  ip.Positional,
		ScriptName:  ip.ScriptName,
		LastStatus:  ip.LastStatus,
		LastBgPID:   ip.LastBgPID,
		ShellPID:    ip.ShellPID,
		ShellOpts:   ip.Opts.letters(),
		NounsetMode: ip.Opts.Nounset,
		ExtGlob:     !ip.Opts.PosixMode,
		Workdir:     ip.workdir,
		RunCommand:  ip.runCommandSub,
		HomeDir:     lookupHomeDir,
	}
}

func lookupHomeDir(user string) (string, bool) {
	return "", false
}

// runCommandSub executes src in a child interpreter sharing this one's
// scope (command substitution runs in a subshell environment per POSIX,
// but since this process is single-threaded Go, a child Interp value with
// the same *symtable.Scope chain stands in for the fork) and captures its
// stdout (§4.3 command substitution).
func (ip *Interp) runCommandSub(src string) (string, error) {
	var buf strings.Builder
	child := *ip
	child.Stdout = &buf
	prog, perr := child.parseSource(src)
	if perr != nil {
		return "", perr
	}
	_, err := child.Run(prog)
	if _, ok := err.(ExitSignal); ok {
		return buf.String(), nil
	}
	return buf.String(), err
}

// parseSource is set by cmd/lusush at startup (via SetParser) to avoid a
// direct import cycle between interp and parser; interp only needs it for
// eval/`.`/command substitution, each of which parses a fresh fragment of
// source.
var parseFn func(src string) (ast.Node, error)

// SetParser installs the parse entry point used internally by eval/source/
// command substitution.
func SetParser(fn func(src string) (ast.Node, error)) { parseFn = fn }

func (ip *Interp) parseSource(src string) (ast.Node, error) {
	if parseFn == nil {
		return nil, fmt.Errorf("parser not wired")
	}
	return parseFn(src)
}

// Run executes one AST node and returns its exit status (§5). Control-flow
// sentinels (break/continue/return/exit) propagate as the returned error;
// ordinary command failures never set err — only status is nonzero.
func (ip *Interp) Run(node ast.Node) (int, error) {
	if node == nil {
		return 0, nil
	}
	status, err := ip.run(node)
	ip.LastStatus = status
	return status, err
}

func (ip *Interp) run(node ast.Node) (int, error) {
	switch n := node.(type) {
	case *ast.List:
		return ip.runList(n)
	case *ast.AndOr:
		return ip.runAndOr(n)
	case *ast.Pipeline:
		return ip.runPipeline(n)
	case *ast.SimpleCommand:
		return ip.runSimpleCommand(n)
	case *ast.Subshell:
		return ip.runSubshell(n)
	case *ast.BraceGroup:
		return ip.Run(n.Body)
	case *ast.If:
		return ip.runIf(n)
	case *ast.For:
		return ip.runFor(n)
	case *ast.CStyleFor:
		return ip.runCStyleFor(n)
	case *ast.While:
		return ip.runWhile(n)
	case *ast.Case:
		return ip.runCase(n)
	case *ast.Select:
		return ip.runSelect(n)
	case *ast.FunctionDef:
		ip.Funcs[n.Name] = n
		return 0, nil
	case *ast.ArithmeticCmd:
		return ip.runArithmeticCmd(n)
	case *ast.CondExpr:
		return ip.runCondExpr(n)
	case *ast.Redirected:
		return ip.runRedirected(n)
	default:
		return 1, fmt.Errorf("interp: unhandled node %T", node)
	}
}

func (ip *Interp) runList(l *ast.List) (int, error) {
	status := 0
	var err error
	for _, item := range l.Items {
		ip.checkTraps()
		if item.Term == ast.TermAsync {
			ip.runBackground(item.Node)
			status = 0
			continue
		}
		status, err = ip.Run(item.Node)
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

// runBackground launches node asynchronously (`cmd &`, §5/§6): the job runs
// against its own subshell-style scope copy, the same isolation
// runSubshell/runPipelineStage already give a concurrently-running command,
// so it never touches the live *symtable.Scope or *Interp the foreground
// list keeps using for whatever runs next. The job is registered in the
// shared job table so `wait`/`$!` can reap its status later instead of the
// result being silently dropped.
func (ip *Interp) runBackground(node ast.Node) {
	child := ip.childScope()
	for _, name := range ip.Scope.Names() {
		if sym, ok := ip.Scope.Lookup(name); ok {
			child.Scope.Declare(name, sym.Value, sym.Attrs&^symtable.AttrNameref)
		}
	}
	job := ip.jobs.spawn()
	ip.LastBgPID = job.pid
	go func() {
		status, _ := child.Run(node)
		ip.jobs.finish(job, status)
	}()
}

func (ip *Interp) runAndOr(n *ast.AndOr) (int, error) {
	status, err := ip.Run(n.Left)
	if err != nil {
		return status, err
	}
	switch n.Op {
	case ast.OpAnd:
		if status != 0 {
			return status, nil
		}
	case ast.OpOr:
		if status == 0 {
			return status, nil
		}
	}
	return ip.runNoErrexit(n.Right)
}

// runNoErrexit runs node with errexit suppressed for this one call: the
// right-hand side of && / || and the condition of if/while/until are
// exempt from triggering `set -e` (§6 errexit exemption list).
func (ip *Interp) runNoErrexit(node ast.Node) (int, error) {
	saved := ip.Opts.Errexit
	ip.Opts.Errexit = false
	status, err := ip.Run(node)
	ip.Opts.Errexit = saved
	return status, err
}

func (ip *Interp) checkErrexit(status int) error {
	if status != 0 && ip.Opts.Errexit {
		return ExitSignal{Code: status}
	}
	return nil
}

func (ip *Interp) runSubshell(n *ast.Subshell) (int, error) {
	child := ip.childScope()
	for _, name := range ip.Scope.Names() {
		if sym, ok := ip.Scope.Lookup(name); ok {
			child.Scope.Declare(name, sym.Value, sym.Attrs&^symtable.AttrNameref)
		}
	}
	status, err := child.Run(n.Body)
	if es, ok := err.(ExitSignal); ok {
		return es.Code, nil
	}
	return status, err
}

// childScope returns a copy of ip sharing builtins/traps/funcs maps (a real
// fork would give the child its own copy-on-write address space; Go
// doesn't fork, so mutations to maps inside a subshell are visible to the
// parent the same way bash's documented "avoid relying on subshell side
// effects" caveat already warns against) but with its own *symtable.Scope
// child frame and its own xtrace Logger state (§3, §5). New names land in
// the child frame, while assigning a name an outer frame already binds
// writes to that outer frame, so runSubshell and runBackground first copy
// every visible variable into the child frame.
func (ip *Interp) childScope() *Interp {
	cp := *ip
	cp.Scope = ip.Scope.Push("")
	lg := *ip.Log
	cp.Log = &lg
	return &cp
}

func (ip *Interp) runIf(n *ast.If) (int, error) {
	status, err := ip.runNoErrexit(n.Cond)
	if err != nil {
		return status, err
	}
	if status == 0 {
		return ip.Run(n.Then)
	}
	for _, e := range n.Elif {
		status, err := ip.runNoErrexit(e.Cond)
		if err != nil {
			return status, err
		}
		if status == 0 {
			return ip.Run(e.Body)
		}
	}
	if n.Else != nil {
		return ip.Run(n.Else)
	}
	return 0, nil
}

func (ip *Interp) runWhile(n *ast.While) (int, error) {
	status := 0
	for {
		condStatus, err := ip.runNoErrexit(n.Cond)
		if err != nil {
			return condStatus, err
		}
		stop := condStatus != 0
		if n.Negate {
			stop = condStatus == 0
		}
		if stop {
			return status, nil
		}
		bodyStatus, err := ip.Run(n.Body)
		status = bodyStatus
		if err != nil {
			if b, ok := err.(breakSignal); ok {
				if b.n > 1 {
					return status, breakSignal{b.n - 1}
				}
				return status, nil
			}
			if c, ok := err.(continueSignal); ok {
				if c.n > 1 {
					return status, continueSignal{c.n - 1}
				}
				continue
			}
			return status, err
		}
	}
}

// runFor iterates Words (or the positional parameters) in the enclosing
// scope frame: §9's resolved Open Question keeps the loop body sharing the
// enclosing frame rather than opening a fresh one per iteration, so
// assignments inside the body are visible after the loop exits.
func (ip *Interp) runFor(n *ast.For) (int, error) {
	items := n.Words
	var words []string
	if n.Positional {
		words = ip.Positional
	} else {
		var err error
		words, err = ip.expander().Words(items)
		if err != nil {
			return 1, ip.diagnose(errs.Expansion, err)
		}
	}
	status := 0
	for _, w := range words {
		if err := ip.Scope.Set(n.Var, w); err != nil {
			return 1, ip.diagnose(errs.AssignmentErr, err)
		}
		bodyStatus, err := ip.Run(n.Body)
		status = bodyStatus
		if err != nil {
			if b, ok := err.(breakSignal); ok {
				if b.n > 1 {
					return status, breakSignal{b.n - 1}
				}
				return status, nil
			}
			if c, ok := err.(continueSignal); ok {
				if c.n > 1 {
					return status, continueSignal{c.n - 1}
				}
				continue
			}
			return status, err
		}
	}
	return status, nil
}

func (ip *Interp) runCStyleFor(n *ast.CStyleFor) (int, error) {
	av := ip.arithVars()
	if n.Init != "" {
		if _, err := arith.Eval(n.Init, av); err != nil {
			return 1, ip.diagnose(errs.Expansion, err)
		}
	}
	status := 0
	for {
		if n.Cond != "" {
			v, err := arith.Eval(n.Cond, av)
			if err != nil {
				return 1, ip.diagnose(errs.Expansion, err)
			}
			if v == 0 {
				return status, nil
			}
		}
		bodyStatus, err := ip.Run(n.Body)
		status = bodyStatus
		if err != nil {
			if b, ok := err.(breakSignal); ok {
				if b.n > 1 {
					return status, breakSignal{b.n - 1}
				}
				return status, nil
			}
			if c, ok := err.(continueSignal); ok {
				if c.n > 1 {
					return status, continueSignal{c.n - 1}
				}
			} else {
				return status, err
			}
		}
		if n.Update != "" {
			if _, err := arith.Eval(n.Update, av); err != nil {
				return 1, ip.diagnose(errs.Expansion, err)
			}
		}
	}
}

type arithVars struct{ ip *Interp }

func (a *arithVars) GetInt(name string) (int64, error) {
	sym, _ := a.ip.Scope.Lookup(name)
	if sym.Value == "" {
		return 0, nil
	}
	var n int64
	_, err := fmt.Sscanf(strings.TrimSpace(sym.Value), "%d", &n)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (a *arithVars) SetInt(name string, v int64) error {
	return a.ip.Scope.Set(name, fmt.Sprintf("%d", v))
}

func (ip *Interp) arithVars() arith.Vars { return &arithVars{ip: ip} }

func (ip *Interp) runArithmeticCmd(n *ast.ArithmeticCmd) (int, error) {
	v, err := arith.Eval(n.Expr, ip.arithVars())
	if err != nil {
		return 1, ip.diagnose(errs.Expansion, err)
	}
	if v == 0 {
		return 1, nil
	}
	return 0, nil
}

// runCondExpr expands the `[[ ]]` words like command words and hands them
// to the test builtin's evaluator, which covers string/integer/file
// operators (§9 extended mode default).
func (ip *Interp) runCondExpr(n *ast.CondExpr) (int, error) {
	words, err := ip.expander().Words(n.Words)
	if err != nil {
		return 1, ip.diagnose(errs.Expansion, err)
	}
	argv := append([]string{"[["}, words...)
	b, ok := ip.Builtins.Lookup("test")
	if !ok {
		return 1, fmt.Errorf("interp: test builtin missing")
	}
	return b.Run(ip.builtinCtx(), argv)
}

func (ip *Interp) runRedirected(n *ast.Redirected) (int, error) {
	restore, err := ip.applyRedirections(n.Redirs)
	if err != nil {
		return 1, ip.diagnose(errs.RedirectionErr, err)
	}
	defer restore()
	return ip.Run(n.Node)
}

func (ip *Interp) runCase(n *ast.Case) (int, error) {
	words, err := ip.expander().Words([]ast.Word{n.Word})
	if err != nil {
		return 1, ip.diagnose(errs.Expansion, err)
	}
	subject := strings.Join(words, " ")
	status := 0
	for i := 0; i < len(n.Clauses); i++ {
		cl := n.Clauses[i]
		if !caseMatches(ip, cl.Patterns, subject) {
			continue
		}
		status, err = ip.Run(cl.Body)
		if err != nil {
			return status, err
		}
		// ";&" runs the next clause's body unconditionally; ";;&" tests the
		// next clause's patterns first and only runs it on a match, stopping
		// otherwise. This repeats while the clause just run also ends in
		// ";&" or ";;&".
		for cl.Term == ast.CaseFallThrough || cl.Term == ast.CaseTestNext {
			testNext := cl.Term == ast.CaseTestNext
			i++
			if i >= len(n.Clauses) {
				break
			}
			cl = n.Clauses[i]
			if testNext && !caseMatches(ip, cl.Patterns, subject) {
				break
			}
			status, err = ip.Run(cl.Body)
			if err != nil {
				return status, err
			}
		}
		return status, nil
	}
	return status, nil
}

func caseMatches(ip *Interp, patterns []ast.Word, subject string) bool {
	for _, p := range patterns {
		words, err := ip.expander().Words([]ast.Word{p})
		if err != nil {
			continue
		}
		for _, w := range words {
			if expand.MatchPattern(w, subject) {
				return true
			}
		}
	}
	return false
}

func (ip *Interp) runSelect(n *ast.Select) (int, error) {
	words, err := ip.expander().Words(n.Words)
	if err != nil {
		return 1, ip.diagnose(errs.Expansion, err)
	}
	reader := bufio.NewReader(ip.Stdin)
	status := 0
	for {
		for i, w := range words {
			fmt.Fprintf(ip.Stderr, "%d) %s\n", i+1, w)
		}
		fmt.Fprint(ip.Stderr, ip.ps3())
		line, rerr := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if rerr != nil && line == "" {
			return status, nil
		}
		ip.Scope.Set("REPLY", line)
		idx := -1
		fmt.Sscanf(line, "%d", &idx)
		if idx >= 1 && idx <= len(words) {
			ip.Scope.Set(n.Var, words[idx-1])
		} else {
			ip.Scope.Set(n.Var, "")
		}
		bodyStatus, err := ip.Run(n.Body)
		status = bodyStatus
		if err != nil {
			if b, ok := err.(breakSignal); ok {
				if b.n > 1 {
					return status, breakSignal{b.n - 1}
				}
				return status, nil
			}
			if c, ok := err.(continueSignal); ok {
				if c.n > 1 {
					return status, continueSignal{c.n - 1}
				}
				continue
			}
			return status, err
		}
	}
}

func (ip *Interp) ps3() string {
	if v, ok := ip.Scope.Lookup("PS3"); ok && v.Value != "" {
		return v.Value
	}
	return "#? "
}

func (ip *Interp) diagnose(cat errs.Category, err error) error {
	d := &errs.Diagnostic{Category: cat, Message: err.Error()}
	ip.errList.Add(d)
	fmt.Fprintln(ip.Stderr, d.Error())
	return err
}
