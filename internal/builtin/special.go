package builtin

import (
	"fmt"
	"strconv"
)

// The POSIX "special" builtins (§7): their errors are fatal in a
// non-interactive shell and participate in `set -e`, unlike regular
// builtins whose failures are ordinary nonzero exit statuses.

func init() {
	Register(&Builtin{Name: ":", Kind: Special, Summary: ": [arg ...]", Run: runColon})
	Register(&Builtin{Name: "true", Kind: Regular, Summary: "true", Run: runColon})
	Register(&Builtin{Name: "false", Kind: Regular, Summary: "false", Run: func(Context, []string) (int, error) { return 1, nil }})
	Register(&Builtin{Name: "break", Kind: Special, Summary: "break [n]", Run: runBreak})
	Register(&Builtin{Name: "continue", Kind: Special, Summary: "continue [n]", Run: runContinue})
	Register(&Builtin{Name: "return", Kind: Special, Summary: "return [n]", Run: runReturn})
	Register(&Builtin{Name: "exit", Kind: Special, Summary: "exit [n]", Run: runExit})
	Register(&Builtin{Name: "export", Kind: Special, Summary: "export [name[=value] ...]", Run: runExport})
	Register(&Builtin{Name: "unset", Kind: Special, Summary: "unset [-fv] name ...", Run: runUnset})
	Register(&Builtin{Name: "readonly", Kind: Special, Summary: "readonly [name[=value] ...]", Run: runReadonly})
	Register(&Builtin{Name: "shift", Kind: Special, Summary: "shift [n]", Run: runShift})
	Register(&Builtin{Name: "eval", Kind: Special, Summary: "eval [arg ...]", Run: runEval})
	Register(&Builtin{Name: "exec", Kind: Special, Summary: "exec [command [arg ...]]", Run: runExec})
	Register(&Builtin{Name: ".", Kind: Special, Summary: ". file [arg ...]", Run: runDot})
	Register(&Builtin{Name: "trap", Kind: Special, Summary: "trap [action] [sig ...]", Run: runTrap})
	Register(&Builtin{Name: "set", Kind: Special, Summary: "set [-o option | +o option | --] [arg ...]", Run: runSet})
	Register(&Builtin{Name: "times", Kind: Special, Summary: "times", Run: runTimes})
}

func runColon(Context, []string) (int, error) { return 0, nil }

func parseLoopCount(argv []string) (int, error) {
	if len(argv) < 2 {
		return 1, nil
	}
	n, err := strconv.Atoi(argv[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: bad loop count", argv[0])
	}
	return n, nil
}

func runBreak(ctx Context, argv []string) (int, error) {
	n, err := parseLoopCount(argv)
	if err != nil {
		return usageError(ctx, argv[0], err.Error())
	}
	return 0, ctx.BreakLoop(n)
}

func runContinue(ctx Context, argv []string) (int, error) {
	n, err := parseLoopCount(argv)
	if err != nil {
		return usageError(ctx, argv[0], err.Error())
	}
	return 0, ctx.ContinueLoop(n)
}

func runReturn(ctx Context, argv []string) (int, error) {
	code := 0
	if len(argv) > 1 {
		n, err := strconv.Atoi(argv[1])
		if err != nil {
			return usageError(ctx, "return", "numeric argument required")
		}
		code = n
	}
	return code, ctx.ReturnFunc(code)
}

func runExit(ctx Context, argv []string) (int, error) {
	code := 0
	if len(argv) > 1 {
		n, err := strconv.Atoi(argv[1])
		if err != nil {
			return usageError(ctx, "exit", "numeric argument required")
		}
		code = n
	}
	return code, ctx.Exit(code)
}

func runExport(ctx Context, argv []string) (int, error) {
	if len(argv) == 1 {
		for _, name := range ctx.Exported() {
			fmt.Fprintf(ctx.Stdout(), "export %s\n", name)
		}
		return 0, nil
	}
	for _, a := range argv[1:] {
		name, value, hasValue := splitNameValue(a)
		if hasValue {
			if err := ctx.Setenv(name, value); err != nil {
				return usageError(ctx, "export", err.Error())
			}
		}
		if err := ctx.Setenv(name, value); err != nil && !hasValue {
			return usageError(ctx, "export", err.Error())
		}
	}
	return 0, nil
}

func splitNameValue(a string) (name, value string, hasValue bool) {
	for i := 0; i < len(a); i++ {
		if a[i] == '=' {
			return a[:i], a[i+1:], true
		}
	}
	return a, "", false
}

func runUnset(ctx Context, argv []string) (int, error) {
	funcsOnly, varsOnly := false, false
	args := argv[1:]
	for len(args) > 0 && len(args[0]) > 1 && args[0][0] == '-' {
		switch args[0] {
		case "-f":
			funcsOnly = true
		case "-v":
			varsOnly = true
		default:
			return usageError(ctx, "unset", "invalid option "+args[0])
		}
		args = args[1:]
	}
	status := 0
	for _, name := range args {
		if funcsOnly {
			continue
		}
		if err := ctx.Unsetenv(name); err != nil {
			fmt.Fprintf(ctx.Stderr(), "unset: %s\n", err)
			status = 1
		}
	}
	_ = varsOnly
	return status, nil
}

func runReadonly(ctx Context, argv []string) (int, error) {
	if len(argv) == 1 {
		for _, name := range ctx.Exported() {
			fmt.Fprintf(ctx.Stdout(), "readonly %s\n", name)
		}
		return 0, nil
	}
	for _, a := range argv[1:] {
		name, value, hasValue := splitNameValue(a)
		if hasValue {
			if err := ctx.Setenv(name, value); err != nil {
				return usageError(ctx, "readonly", err.Error())
			}
		}
		_ = name
	}
	return 0, nil
}

func runShift(ctx Context, argv []string) (int, error) {
	n := 1
	if len(argv) > 1 {
		v, err := strconv.Atoi(argv[1])
		if err != nil || v < 0 {
			return usageError(ctx, "shift", "bad shift count")
		}
		n = v
	}
	args := ctx.Args()
	if n > len(args) {
		return 1, nil
	}
	ctx.SetArgs(args[n:])
	return 0, nil
}

func runEval(ctx Context, argv []string) (int, error) {
	src := joinArgs(argv[1:])
	if src == "" {
		return 0, nil
	}
	if err := ctx.Eval(src); err != nil {
		return 1, err
	}
	return 0, nil
}

func joinArgs(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

func runExec(ctx Context, argv []string) (int, error) {
	if len(argv) == 1 {
		return 0, nil
	}
	return 0, ctx.Exec(argv[1:])
}

func runDot(ctx Context, argv []string) (int, error) {
	if len(argv) < 2 {
		return usageError(ctx, ".", "filename argument required")
	}
	if err := ctx.Source(argv[1]); err != nil {
		return 1, err
	}
	return 0, nil
}

func runTrap(ctx Context, argv []string) (int, error) {
	if len(argv) == 1 {
		for sig, action := range ctx.Traps() {
			fmt.Fprintf(ctx.Stdout(), "trap -- %q %s\n", action, sig)
		}
		return 0, nil
	}
	action := argv[1]
	for _, sig := range argv[2:] {
		ctx.PushTrap(sig, action)
	}
	return 0, nil
}

func runSet(ctx Context, argv []string) (int, error) {
	args := argv[1:]
	i := 0
	for i < len(args) {
		a := args[i]
		if a == "--" {
			i++
			break
		}
		if len(a) >= 2 && (a[0] == '-' || a[0] == '+') {
			on := a[0] == '-'
			if a == "-o" || a == "+o" {
				if i+1 >= len(args) {
					return usageError(ctx, "set", "option name required after "+a)
				}
				if err := ctx.SetOption(args[i+1], on); err != nil {
					return usageError(ctx, "set", err.Error())
				}
				i += 2
				continue
			}
			name := optionName(a)
			if name == "" {
				i++
				continue
			}
			if err := ctx.SetOption(name, on); err != nil {
				return usageError(ctx, "set", err.Error())
			}
			i++
			continue
		}
		break
	}
	if i < len(args) {
		ctx.SetArgs(args[i:])
	}
	return 0, nil
}

// optionName maps a single short flag (-x, +x) to its canonical long option
// name, or "" for anything else; runSet handles `-o name`/`+o name` itself.
func optionName(flag string) string {
	short := map[byte]string{
		'e': "errexit", 'x': "xtrace", 'u': "nounset", 'v': "verbose",
		'n': "noexec", 'f': "noglob", 'C': "noclobber", 'a': "allexport",
		'b': "notify", 'm': "monitor", 'h': "hashall", 'o': "",
	}
	if len(flag) == 2 {
		if name, ok := short[flag[1]]; ok {
			return name
		}
	}
	return ""
}

func runTimes(ctx Context, argv []string) (int, error) {
	fmt.Fprintf(ctx.Stdout(), "0m0.000s 0m0.000s\n0m0.000s 0m0.000s\n")
	return 0, nil
}
