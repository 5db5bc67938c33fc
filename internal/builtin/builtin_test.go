package builtin

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContext is a minimal Context stub for exercising builtins directly,
// without pulling in internal/interp (§3: builtins are specified only at
// the Context interface).
type fakeContext struct {
	out, errOut bytes.Buffer
	env         map[string]string
	args        []string
	opts        map[string]bool
}

func newFakeContext() *fakeContext {
	return &fakeContext{env: map[string]string{}, opts: map[string]bool{}}
}

func (c *fakeContext) Stdout() StreamWriter { return &c.out }
func (c *fakeContext) Stderr() StreamWriter { return &c.errOut }
func (c *fakeContext) Stdin() StreamReader  { return bytes.NewReader(nil) }
func (c *fakeContext) Getenv(name string) (string, bool) {
	v, ok := c.env[name]
	return v, ok
}
func (c *fakeContext) Setenv(name, value string) error { c.env[name] = value; return nil }
func (c *fakeContext) Unsetenv(name string) error      { delete(c.env, name); return nil }
func (c *fakeContext) Exported() []string {
	var out []string
	for k, v := range c.env {
		out = append(out, k+"="+v)
	}
	return out
}
func (c *fakeContext) WorkDir() string       { return "/tmp" }
func (c *fakeContext) Chdir(string) error    { return nil }
func (c *fakeContext) Exit(code int) error   { return nil }
func (c *fakeContext) ShellOpts() OptionsView { return fakeOptsView{c} }
func (c *fakeContext) SetOption(name string, on bool) error {
	c.opts[name] = on
	return nil
}
func (c *fakeContext) Args() []string     { return c.args }
func (c *fakeContext) SetArgs(a []string) { c.args = a }
func (c *fakeContext) LookupFunc(string) (Runnable, bool)    { return nil, false }
func (c *fakeContext) LookupAlias(string) (string, bool)     { return "", false }
func (c *fakeContext) SetAlias(string, string)               {}
func (c *fakeContext) UnsetAlias(string)                      {}
func (c *fakeContext) AllAliases() map[string]string          { return nil }
func (c *fakeContext) PushTrap(string, string)                {}
func (c *fakeContext) Traps() map[string]string               { return nil }
func (c *fakeContext) Source(string) error                    { return nil }
func (c *fakeContext) Eval(string) error                       { return nil }
func (c *fakeContext) Exec([]string) error                     { return nil }
func (c *fakeContext) BreakLoop(n int) error                   { return nil }
func (c *fakeContext) ContinueLoop(n int) error                { return nil }
func (c *fakeContext) ReturnFunc(code int) error                { return nil }
func (c *fakeContext) CallDepth() int                           { return 0 }
func (c *fakeContext) Wait(pid int) (int, bool)                 { return 0, false }
func (c *fakeContext) WaitAll() []int                           { return nil }

type fakeOptsView struct{ c *fakeContext }

func (v fakeOptsView) IsSet(name string) bool { return v.c.opts[name] }
func (v fakeOptsView) Names() []string        { return nil }

func TestEchoPlain(t *testing.T) {
	ctx := newFakeContext()
	status, err := runEcho(ctx, []string{"echo", "hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", ctx.out.String())
}

func TestEchoNoNewline(t *testing.T) {
	ctx := newFakeContext()
	_, err := runEcho(ctx, []string{"echo", "-n", "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", ctx.out.String())
}

func TestPrintfConversions(t *testing.T) {
	ctx := newFakeContext()
	_, err := runPrintf(ctx, []string{"printf", "%s is %d\n", "answer", "42"})
	require.NoError(t, err)
	assert.Equal(t, "answer is 42\n", ctx.out.String())
}

func TestTestBuiltinStringEquality(t *testing.T) {
	ctx := newFakeContext()
	status, err := runTest(ctx, []string{"test", "foo", "=", "foo"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	status, err = runTest(ctx, []string{"test", "foo", "=", "bar"})
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestTestBuiltinIntegerComparison(t *testing.T) {
	ctx := newFakeContext()
	status, err := runTest(ctx, []string{"test", "3", "-lt", "5"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
}

func TestBracketTestRequiresClosingBracket(t *testing.T) {
	ctx := newFakeContext()
	_, err := runBracketTest(ctx, []string{"[", "1", "-eq", "1"})
	require.NoError(t, err)
	assert.Contains(t, ctx.errOut.String(), "missing closing")
}

func TestExportSetsEnv(t *testing.T) {
	ctx := newFakeContext()
	status, err := runExport(ctx, []string{"export", "FOO=bar"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "bar", ctx.env["FOO"])
}

func TestSetShortFlag(t *testing.T) {
	ctx := newFakeContext()
	_, err := runSet(ctx, []string{"set", "-e"})
	require.NoError(t, err)
	assert.True(t, ctx.opts["errexit"])

	_, err = runSet(ctx, []string{"set", "+e"})
	require.NoError(t, err)
	assert.False(t, ctx.opts["errexit"])
}

func TestSetLongOptionForm(t *testing.T) {
	ctx := newFakeContext()
	_, err := runSet(ctx, []string{"set", "-o", "nounset"})
	require.NoError(t, err)
	assert.True(t, ctx.opts["nounset"])
}

func TestRegistryLookup(t *testing.T) {
	b, ok := Global().Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, Regular, b.Kind)

	_, ok = Global().Lookup("exit")
	require.True(t, ok)
	b, _ = Global().Lookup("exit")
	assert.Equal(t, Special, b.Kind)
}
