package interp

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/lusush/lusush/internal/ast"
	"github.com/lusush/lusush/internal/errs"
)

// runSimpleCommand implements §4.4 steps 1-6: expand assignments and words,
// apply redirections, then dispatch to a function, builtin, or external
// program in that priority order: a function is found before any builtin of
// the same name, special builtins included (§5).
func (ip *Interp) runSimpleCommand(n *ast.SimpleCommand) (int, error) {
	restore, err := ip.applyRedirections(n.Redirs)
	if err != nil {
		return 1, ip.diagnose(errs.RedirectionErr, err)
	}
	defer restore()

	ex := ip.expander()
	var words []string
	if len(n.Words) > 0 {
		words, err = ex.Words(n.Words)
		if err != nil {
			return 1, ip.diagnose(errs.Expansion, err)
		}
	}

	if len(words) == 0 {
		// Bare assignment with no command word: bindings persist in the
		// current scope (§4.4 edge case), unlike a prefix on a real command
		// which is scoped to that command's environment only.
		for _, a := range n.Assigns {
			if err := ip.applyAssign(a, ex, true); err != nil {
				return 1, ip.diagnose(errs.AssignmentErr, err)
			}
		}
		return 0, nil
	}

	var restoreAssigns func()
	if len(n.Assigns) > 0 {
		saved := map[string]symSnapshot{}
		for _, a := range n.Assigns {
			saved[a.Name] = ip.snapshot(a.Name)
			if err := ip.applyAssign(a, ex, false); err != nil {
				return 1, ip.diagnose(errs.AssignmentErr, err)
			}
		}
		restoreAssigns = func() {
			for name, snap := range saved {
				ip.restoreSnapshot(name, snap)
			}
		}
		defer restoreAssigns()
	}

	name := words[0]
	argv := words

	if ip.Opts.Noexec {
		return 0, nil
	}
	ip.Log.Command(ip.callDepth, argv)

	if fn, ok := ip.Funcs[name]; ok {
		return ip.callFunction(fn, argv)
	}
	if b, ok := ip.Builtins.Lookup(name); ok {
		status, err := b.Run(ip.builtinCtx(), argv)
		if err != nil {
			return status, err
		}
		if cerr := ip.checkErrexit(status); cerr != nil {
			return status, cerr
		}
		return status, nil
	}
	return ip.runExternal(argv)
}

type symSnapshot struct {
	had   bool
	value string
}

func (ip *Interp) snapshot(name string) symSnapshot {
	sym, ok := ip.Scope.Lookup(name)
	return symSnapshot{had: ok, value: sym.Value}
}

func (ip *Interp) restoreSnapshot(name string, snap symSnapshot) {
	if snap.had {
		ip.Scope.Set(name, snap.value)
	} else {
		ip.Scope.Unset(name)
	}
}

func (ip *Interp) applyAssign(a ast.Assign, ex interface {
	Word(ast.Word) ([]string, error)
}, persist bool) error {
	fields, err := ex.Word(a.Value)
	if err != nil {
		return err
	}
	value := strings.Join(fields, " ")
	if a.Append {
		if cur, ok := ip.Scope.Lookup(a.Name); ok {
			value = cur.Value + value
		}
	}
	return ip.Scope.Set(a.Name, value)
}

// callFunction pushes a new scope frame, rebinds positional parameters to
// argv[1:], and runs the function body, translating a `return` sentinel
// into a plain exit status (§5).
func (ip *Interp) callFunction(fn *ast.FunctionDef, argv []string) (int, error) {
	child := ip.childScope()
	child.Positional = argv[1:]
	child.callDepth = ip.callDepth + 1
	status, err := child.Run(fn.Body)
	if rs, ok := err.(returnSignal); ok {
		return rs.code, nil
	}
	return status, err
}

// runExternal resolves name via PATH (os/exec's default behavior) and runs
// it as a child process, with stdio and environment inherited from the
// interpreter's current streams/exported scope (§4.4 step 6, §5).
func (ip *Interp) runExternal(argv []string) (int, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		fmt.Fprintf(ip.Stderr, "lusush: %s: command not found\n", argv[0])
		return 127, nil
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = ip.environ()
	cmd.Dir = ip.workdir
	cmd.Stdin = asFile(ip.Stdin, os.Stdin)
	cmd.Stdout = orWriter(ip.Stdout, os.Stdout)
	cmd.Stderr = orWriter(ip.Stderr, os.Stderr)
	runErr := cmd.Run()
	if runErr == nil {
		return 0, nil
	}
	if ee, ok := runErr.(*exec.ExitError); ok {
		return ee.ExitCode(), nil
	}
	fmt.Fprintf(ip.Stderr, "lusush: %s: %s\n", argv[0], runErr)
	return 126, nil
}

func asFile(r io.Reader, fallback *os.File) io.Reader {
	if r == nil {
		return fallback
	}
	return r
}

func orWriter(w io.Writer, fallback *os.File) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}

func (ip *Interp) environ() []string {
	var out []string
	for _, sym := range ip.Scope.Exported() {
		out = append(out, sym.Name+"="+sym.Value)
	}
	return out
}
