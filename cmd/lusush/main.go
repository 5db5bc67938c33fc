// Command lusush is the shell's entry point (§6 CLI surface): wires
// lexer -> parser -> expand -> interp and exposes the POSIX `sh`-style
// invocation flags plus a couple of debug-dump extensions. Grounded on the
// teacher's cmd/devcmd main.go cobra.Command wiring, generalized from a
// subcommand tree to a single root command with DisableFlagParsing, since
// POSIX shell invocation syntax (`-c string`, combined short flags like
// `-ex`, `-o name`/`+o name`) doesn't fit cobra's pflag-based parser
// directly and is instead hand-parsed the way every real shell's own
// getopt-style argv walk works.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"

	"github.com/lusush/lusush/internal/ast"
	"github.com/lusush/lusush/internal/interp"
	"github.com/lusush/lusush/internal/lexer"
	"github.com/lusush/lusush/internal/parser"
	"github.com/lusush/lusush/internal/token"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// rootCmd exists for its Use/Short/Long text and UsageString() rendering
// (--help prints it); actual argument handling bypasses cobra's own flag
// parser via DisableFlagParsing, since POSIX shell invocation syntax
// doesn't fit pflag's GNU-style grammar (see parseArgv).
var rootCmd = &cobra.Command{
	Use:                "lusush [options] [script-file [args...]]",
	Short:              "A POSIX-compliant command shell",
	Long: "lusush reads, expands, and executes POSIX shell commands from\n" +
		"a -c string, a script file, standard input, or an interactive prompt.",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	Run:                func(cmd *cobra.Command, args []string) {},
}

type cliOptions struct {
	command       string
	hasCommand    bool
	interactive   bool
	loginShell    bool
	stdinScript   bool
	posixMode     bool
	dumpAST       bool
	dumpTokens    bool
	showVersion   bool
	setOpts       map[string]bool
	scriptFile    string
	scriptArgs    []string
}

// run parses argv by hand (§6: `sh`-compatible option grammar) and drives
// the pipeline, returning the process exit code.
func run(argv []string) int {
	opts, err := parseArgv(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lusush: %s\n", err)
		return 2
	}
	if opts.showVersion {
		fmt.Printf("lusush %s (built %s)\n", version, buildTime)
		return 0
	}

	ip := interp.New()
	ip.Opts.PosixMode = opts.posixMode
	for name, on := range opts.setOpts {
		ip.SetOption(name, on)
	}
	ip.Positional = opts.scriptArgs
	interp.SetParser(func(src string) (ast.Node, error) {
		return parseOne(src, ip.Opts.PosixMode)
	})

	var code int
	switch {
	case opts.hasCommand:
		code = runSource(ip, opts.command, "-c", opts)
	case opts.scriptFile != "":
		data, err := os.ReadFile(opts.scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lusush: %s: %s\n", opts.scriptFile, err)
			return 127
		}
		ip.ScriptName = opts.scriptFile
		code = runSource(ip, string(data), opts.scriptFile, opts)
	case opts.stdinScript || !isTerminal(os.Stdin):
		data, _ := readAll(os.Stdin)
		code = runSource(ip, string(data), "-s", opts)
	default:
		code = runInteractive(ip, opts)
	}
	// The shell is actually exiting now: run any registered EXIT trap and
	// reap whatever background jobs nobody collected with `wait` (§4.4,
	// §5).
	ip.FireExitTrap()
	ip.ReapBackgroundJobs()
	return code
}

func parseOne(src string, posix bool) (ast.Node, error) {
	prog, errs := parser.ParseProgram(src, parser.Options{PosixMode: posix, AliasesOn: true})
	if errs.HasErrors() {
		return nil, fmt.Errorf("%s", errs.Format(strings.Split(src, "\n")))
	}
	return prog, nil
}

func runSource(ip *interp.Interp, src, label string, opts cliOptions) int {
	prog, perr := parseOne(src, ip.Opts.PosixMode)
	if perr != nil {
		fmt.Fprint(os.Stderr, perr.Error())
		return 2
	}
	if opts.dumpTokens {
		dumpTokens(src)
	}
	if opts.dumpAST {
		fmt.Fprintln(os.Stdout, repr.String(prog, repr.Indent("  ")))
		return 0
	}
	_, rerr := ip.Run(prog)
	if es, ok := rerr.(interp.ExitSignal); ok {
		return es.Code
	}
	if rerr != nil {
		fmt.Fprintf(os.Stderr, "lusush: %s\n", rerr)
		return 1
	}
	return ip.LastStatus
}

func runInteractive(ip *interp.Interp, opts cliOptions) int {
	reader := bufio.NewReader(os.Stdin)
	status := 0
	for {
		fmt.Fprint(os.Stderr, ps1(ip))
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		status = runSource(ip, line, "-i", opts)
		if err != nil {
			break
		}
	}
	return status
}

func ps1(ip *interp.Interp) string {
	if sym, ok := ip.Scope.Lookup("PS1"); ok && sym.Value != "" {
		return sym.Value
	}
	return "$ "
}

func dumpTokens(src string) {
	lx := lexer.New([]byte(src))
	for {
		tok, err := lx.Next()
		if err != nil {
			fmt.Fprintf(os.Stdout, "lex error: %s\n", err)
			return
		}
		fmt.Fprintln(os.Stdout, repr.String(tok, repr.Indent("  ")))
		if tok.Kind == token.END {
			return
		}
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func readAll(f *os.File) ([]byte, error) {
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		b.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return []byte(b.String()), nil
}

// parseArgv hand-parses the `sh`-compatible invocation grammar: -c string,
// -s, -i, -l, --posix, --dump-ast, --dump-tokens, --version/--help, and
// -o name / +o name / combined short option letters (-ex == -e -x), per §6.
func parseArgv(argv []string) (cliOptions, error) {
	opts := cliOptions{setOpts: map[string]bool{}}
	i := 0
	for i < len(argv) {
		a := argv[i]
		switch {
		case a == "--":
			i++
			goto operands
		case a == "--version":
			opts.showVersion = true
			i++
		case a == "--help":
			fmt.Print(rootCmd.UsageString())
			opts.showVersion = true
			i++
		case a == "--posix":
			opts.posixMode = true
			i++
		case a == "--dump-ast":
			opts.dumpAST = true
			i++
		case a == "--dump-tokens":
			opts.dumpTokens = true
			i++
		case a == "-c":
			if i+1 >= len(argv) {
				return opts, fmt.Errorf("-c requires an argument")
			}
			opts.command = argv[i+1]
			opts.hasCommand = true
			i += 2
			goto operands
		case a == "-s":
			opts.stdinScript = true
			i++
		case a == "-i":
			opts.interactive = true
			i++
		case a == "-l":
			opts.loginShell = true
			i++
		case a == "-o" || a == "+o":
			if i+1 >= len(argv) {
				return opts, fmt.Errorf("%s requires an option name", a)
			}
			opts.setOpts[argv[i+1]] = a == "-o"
			i += 2
		case strings.HasPrefix(a, "-") && len(a) > 1 && a != "-":
			for _, c := range a[1:] {
				if name := flagLetterName(c); name != "" {
					opts.setOpts[name] = true
				}
			}
			i++
		case strings.HasPrefix(a, "+") && len(a) > 1:
			for _, c := range a[1:] {
				if name := flagLetterName(c); name != "" {
					opts.setOpts[name] = false
				}
			}
			i++
		default:
			goto operands
		}
	}
operands:
	if !opts.hasCommand && i < len(argv) {
		opts.scriptFile = argv[i]
		i++
	}
	opts.scriptArgs = append(opts.scriptArgs, argv[i:]...)
	return opts, nil
}

func flagLetterName(c rune) string {
	switch c {
	case 'e':
		return "errexit"
	case 'u':
		return "nounset"
	case 'x':
		return "xtrace"
	case 'v':
		return "verbose"
	case 'n':
		return "noexec"
	case 'f':
		return "noglob"
	case 'C':
		return "noclobber"
	case 'a':
		return "allexport"
	case 'm':
		return "monitor"
	case 'b':
		return "notify"
	case 'h':
		return "hashall"
	default:
		return ""
	}
}
