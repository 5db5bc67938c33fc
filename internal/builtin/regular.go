package builtin

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Regular builtins (§7): ordinary nonzero-exit-on-failure semantics, unlike
// the special builtins in special.go.

func init() {
	Register(&Builtin{Name: "cd", Kind: Regular, Summary: "cd [dir]", Run: runCd})
	Register(&Builtin{Name: "pwd", Kind: Regular, Summary: "pwd", Run: runPwd})
	Register(&Builtin{Name: "echo", Kind: Regular, Summary: "echo [-n] [arg ...]", Run: runEcho})
	Register(&Builtin{Name: "printf", Kind: Regular, Summary: "printf format [arg ...]", Run: runPrintf})
	Register(&Builtin{Name: "read", Kind: Regular, Summary: "read [-r] name ...", Run: runRead})
	Register(&Builtin{Name: "test", Kind: Regular, Summary: "test expr", Run: runTest})
	Register(&Builtin{Name: "[", Kind: Regular, Summary: "[ expr ]", Run: runBracketTest})
	Register(&Builtin{Name: "alias", Kind: Regular, Summary: "alias [name[=value] ...]", Run: runAlias})
	Register(&Builtin{Name: "unalias", Kind: Regular, Summary: "unalias name ...", Run: runUnalias})
	Register(&Builtin{Name: "type", Kind: Regular, Summary: "type name ...", Run: runType})
	Register(&Builtin{Name: "command", Kind: Regular, Summary: "command [-v] name [arg ...]", Run: runCommand})
	Register(&Builtin{Name: "wait", Kind: Regular, Summary: "wait [pid ...]", Run: runWait})
	Register(&Builtin{Name: "local", Kind: Regular, Summary: "local name[=value] ...", Run: runLocal})
	Register(&Builtin{Name: "declare", Kind: Regular, Summary: "declare [-rxilu] name[=value] ...", Run: runDeclare})
	Register(&Builtin{Name: "typeset", Kind: Regular, Summary: "typeset [-rxilu] name[=value] ...", Run: runDeclare})
}

func runCd(ctx Context, argv []string) (int, error) {
	dir := ""
	if len(argv) > 1 {
		dir = argv[1]
	} else if home, ok := ctx.Getenv("HOME"); ok {
		dir = home
	}
	if dir == "-" {
		if old, ok := ctx.Getenv("OLDPWD"); ok {
			dir = old
		}
	}
	prev := ctx.WorkDir()
	if err := ctx.Chdir(dir); err != nil {
		fmt.Fprintf(ctx.Stderr(), "cd: %s\n", err)
		return 1, nil
	}
	ctx.Setenv("OLDPWD", prev)
	ctx.Setenv("PWD", ctx.WorkDir())
	return 0, nil
}

func runPwd(ctx Context, _ []string) (int, error) {
	fmt.Fprintln(ctx.Stdout(), ctx.WorkDir())
	return 0, nil
}

func runEcho(ctx Context, argv []string) (int, error) {
	args := argv[1:]
	noNewline := false
	interpretEscapes := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") && len(args[0]) > 1 {
		opt := args[0]
		valid := true
		for _, c := range opt[1:] {
			switch c {
			case 'n':
				noNewline = true
			case 'e':
				interpretEscapes = true
			case 'E':
				interpretEscapes = false
			default:
				valid = false
			}
		}
		if !valid {
			break
		}
		args = args[1:]
	}
	out := strings.Join(args, " ")
	if interpretEscapes {
		out = interpretBackslashEscapes(out)
	}
	fmt.Fprint(ctx.Stdout(), out)
	if !noNewline {
		fmt.Fprint(ctx.Stdout(), "\n")
	}
	return 0, nil
}

func interpretBackslashEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case 'a':
			b.WriteByte('\a')
		case 'c':
			return b.String()
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func runPrintf(ctx Context, argv []string) (int, error) {
	if len(argv) < 2 {
		return usageError(ctx, "printf", "usage: printf format [arguments]")
	}
	format := argv[1]
	args := argv[2:]
	out, err := expandPrintfFormat(format, args)
	if err != nil {
		return usageError(ctx, "printf", err.Error())
	}
	fmt.Fprint(ctx.Stdout(), out)
	return 0, nil
}

// expandPrintfFormat reuses the format string cyclically across args the
// way POSIX printf(1) does when more arguments are supplied than
// conversions, formatting each cycle with sprintfOne.
func expandPrintfFormat(format string, args []string) (string, error) {
	var b strings.Builder
	if len(args) == 0 {
		return sprintfOne(format, nil), nil
	}
	for len(args) > 0 {
		consumed := countConversions(format)
		if consumed == 0 {
			b.WriteString(sprintfOne(format, nil))
			break
		}
		if consumed > len(args) {
			consumed = len(args)
		}
		b.WriteString(sprintfOne(format, args[:consumed]))
		args = args[consumed:]
	}
	return b.String(), nil
}

func countConversions(format string) int {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) && format[i+1] != '%' {
			n++
			i++
		}
	}
	return n
}

func sprintfOne(format string, args []string) string {
	var b strings.Builder
	ai := 0
	next := func() string {
		if ai < len(args) {
			v := args[ai]
			ai++
			return v
		}
		return ""
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			if c == '\\' && i+1 < len(format) {
				b.WriteString(interpretBackslashEscapes(format[i : i+2]))
				i++
				continue
			}
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			b.WriteByte('%')
			break
		}
		verb := format[i+1]
		switch verb {
		case '%':
			b.WriteByte('%')
		case 's':
			b.WriteString(next())
		case 'd', 'i':
			n, _ := strconv.ParseInt(strings.TrimSpace(next()), 0, 64)
			fmt.Fprintf(&b, "%d", n)
		case 'f':
			v, _ := strconv.ParseFloat(strings.TrimSpace(next()), 64)
			fmt.Fprintf(&b, "%f", v)
		case 'x', 'o':
			n, _ := strconv.ParseInt(strings.TrimSpace(next()), 0, 64)
			fmt.Fprintf(&b, "%"+string(verb), n)
		case 'c':
			s := next()
			if len(s) > 0 {
				b.WriteByte(s[0])
			}
		case 'b':
			b.WriteString(interpretBackslashEscapes(next()))
		default:
			b.WriteByte('%')
			b.WriteByte(verb)
		}
		i++
	}
	return b.String()
}

func runRead(ctx Context, argv []string) (int, error) {
	names := argv[1:]
	raw := false
	for len(names) > 0 && names[0] == "-r" {
		raw = true
		names = names[1:]
	}
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	reader := bufio.NewReader(ctx.Stdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 1, nil
	}
	line = strings.TrimSuffix(line, "\n")
	if !raw {
		line = interpretBackslashEscapes(line)
	}
	fields := strings.Fields(line)
	for i, name := range names {
		var value string
		switch {
		case i == len(names)-1:
			value = strings.Join(fields[min(i, len(fields)):], " ")
		case i < len(fields):
			value = fields[i]
		}
		if err := ctx.Setenv(name, value); err != nil {
			return usageError(ctx, "read", err.Error())
		}
	}
	return 0, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func runAlias(ctx Context, argv []string) (int, error) {
	if len(argv) == 1 {
		for name, value := range ctx.AllAliases() {
			fmt.Fprintf(ctx.Stdout(), "alias %s='%s'\n", name, value)
		}
		return 0, nil
	}
	status := 0
	for _, a := range argv[1:] {
		name, value, hasValue := splitNameValue(a)
		if !hasValue {
			if v, ok := ctx.LookupAlias(name); ok {
				fmt.Fprintf(ctx.Stdout(), "alias %s='%s'\n", name, v)
			} else {
				fmt.Fprintf(ctx.Stderr(), "alias: %s: not found\n", name)
				status = 1
			}
			continue
		}
		ctx.SetAlias(name, value)
	}
	return status, nil
}

func runUnalias(ctx Context, argv []string) (int, error) {
	for _, name := range argv[1:] {
		ctx.UnsetAlias(name)
	}
	return 0, nil
}

func runType(ctx Context, argv []string) (int, error) {
	status := 0
	for _, name := range argv[1:] {
		switch {
		case isBuiltinName(name):
			fmt.Fprintf(ctx.Stdout(), "%s is a shell builtin\n", name)
		default:
			if _, ok := ctx.LookupFunc(name); ok {
				fmt.Fprintf(ctx.Stdout(), "%s is a function\n", name)
			} else {
				fmt.Fprintf(ctx.Stderr(), "type: %s: not found\n", name)
				status = 1
			}
		}
	}
	return status, nil
}

func isBuiltinName(name string) bool {
	_, ok := Global().Lookup(name)
	return ok
}

func runCommand(ctx Context, argv []string) (int, error) {
	args := argv[1:]
	if len(args) > 0 && args[0] == "-v" {
		if len(args) < 2 {
			return usageError(ctx, "command", "usage: command -v name")
		}
		if isBuiltinName(args[1]) {
			fmt.Fprintln(ctx.Stdout(), args[1])
			return 0, nil
		}
		return 1, nil
	}
	if len(args) == 0 {
		return 0, nil
	}
	return 0, ctx.Exec(args)
}

// runWait reaps background jobs (§5): given pids, it blocks on each in turn
// and returns the last one's status; with no operands it blocks on every
// outstanding job and returns the status of the most recently spawned one.
func runWait(ctx Context, argv []string) (int, error) {
	if len(argv) == 1 {
		statuses := ctx.WaitAll()
		if len(statuses) == 0 {
			return 0, nil
		}
		return statuses[len(statuses)-1], nil
	}
	status := 0
	for _, a := range argv[1:] {
		pid, err := strconv.Atoi(a)
		if err != nil {
			return usageError(ctx, "wait", "pid argument required")
		}
		s, ok := ctx.Wait(pid)
		if !ok {
			return usageError(ctx, "wait", fmt.Sprintf("%s: no such job", a))
		}
		status = s
	}
	return status, nil
}

func runLocal(ctx Context, argv []string) (int, error) {
	for _, a := range argv[1:] {
		name, value, _ := splitNameValue(a)
		if err := ctx.Setenv(name, value); err != nil {
			return usageError(ctx, "local", err.Error())
		}
	}
	return 0, nil
}

func runDeclare(ctx Context, argv []string) (int, error) {
	for _, a := range argv[1:] {
		if strings.HasPrefix(a, "-") {
			continue
		}
		name, value, hasValue := splitNameValue(a)
		if hasValue {
			if err := ctx.Setenv(name, value); err != nil {
				return usageError(ctx, "declare", err.Error())
			}
		}
	}
	return 0, nil
}
