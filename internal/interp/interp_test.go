package interp

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusush/lusush/internal/ast"
	"github.com/lusush/lusush/internal/parser"
)

func init() {
	SetParser(func(src string) (ast.Node, error) {
		prog, errList := parser.ParseProgram(src, parser.Options{AliasesOn: true})
		if errList.HasErrors() {
			return nil, fmt.Errorf("%s", errList.Format(strings.Split(src, "\n")))
		}
		return prog, nil
	})
}

// newTestInterp builds an Interp with captured stdout/stderr, isolated from
// the real process environment (§5 Executor State).
func newTestInterp(t *testing.T) (*Interp, *bytes.Buffer) {
	t.Helper()
	ip := New()
	var out bytes.Buffer
	ip.Stdout = &out
	ip.Stdin = bytes.NewReader(nil)
	return ip, &out
}

func run(t *testing.T, ip *Interp, src string) (int, error) {
	t.Helper()
	prog, err := ip.parseSource(src)
	require.NoError(t, err)
	return ip.Run(prog)
}

func TestSimpleCommandExitStatus(t *testing.T) {
	ip, out := newTestInterp(t)
	status, err := run(t, ip, "echo hello world")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", out.String())
}

func TestAndOrShortCircuit(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, "false && echo unreachable")
	require.NoError(t, err)
	assert.Empty(t, out.String())

	out.Reset()
	_, err = run(t, ip, "false || echo reached")
	require.NoError(t, err)
	assert.Equal(t, "reached\n", out.String())
}

func TestIfElse(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, "if true; then echo yes; else echo no; fi")
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out.String())
}

func TestForLoopSharesEnclosingScope(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, "for i in 1 2 3; do :; done; echo $i")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out.String())
}

func TestWhileWithBreak(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, `
i=0
while true; do
  i=$((i+1))
  if [ $i -eq 3 ]; then break; fi
done
echo $i`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out.String())
}

func TestFunctionCallAndReturn(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, `
greet() {
  echo "hi $1"
  return 7
}
greet world
echo $?`)
	require.NoError(t, err)
	assert.Equal(t, "hi world\n7\n", out.String())
}

func TestCaseFallThrough(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, `
case a in
  a) echo first ;&
  b) echo second ;;
  *) echo default ;;
esac`)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", out.String())
}

func TestPipeline(t *testing.T) {
	ip, out := newTestInterp(t)
	status, err := run(t, ip, "printf 'b\\na\\nc\\n' | sort")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "a\nb\nc\n", out.String())
}

func TestErrexitExemptsConditionals(t *testing.T) {
	ip, out := newTestInterp(t)
	ip.Opts.Errexit = true
	_, err := run(t, ip, "if false; then :; fi; echo survived")
	require.NoError(t, err)
	assert.Equal(t, "survived\n", out.String())
}

func TestErrexitTerminatesOnPlainFailure(t *testing.T) {
	ip, out := newTestInterp(t)
	ip.Opts.Errexit = true
	_, err := run(t, ip, "false\necho unreachable")
	var es ExitSignal
	require.ErrorAs(t, err, &es)
	assert.NotEqual(t, 0, es.Code)
	assert.Empty(t, out.String())
}

func TestExitBuiltinPropagates(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, "exit 5\necho unreachable")
	var es ExitSignal
	require.ErrorAs(t, err, &es)
	assert.Equal(t, 5, es.Code)
	assert.Empty(t, out.String())
}

func TestVariableAssignmentAndExpansion(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, "x=hello; echo $x")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.String())
}
