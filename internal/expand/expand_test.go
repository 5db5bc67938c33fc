package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusush/lusush/internal/ast"
	"github.com/lusush/lusush/internal/symtable"
	"github.com/lusush/lusush/internal/token"
)

func newEnv(t *testing.T) *Env {
	t.Helper()
	scope := symtable.NewGlobal()
	return &Env{
		Scope:      scope,
		Positional: []string{"one", "two", "three"},
		ShellPID:   4242,
		RunCommand: func(src string) (string, error) { return "sub(" + src + ")", nil },
	}
}

func word(text string, q token.QuoteFlags) ast.Word {
	return ast.Word{Text: text, Quote: q}
}

func TestWordPlainLiteral(t *testing.T) {
	env := newEnv(t)
	fields, err := env.Word(word("hello", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, fields)
}

func TestWordParameterExpansion(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("NAME", "lusush"))
	fields, err := env.Word(word("hi $NAME", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "lusush"}, fields)
}

func TestWordDefaultModifier(t *testing.T) {
	env := newEnv(t)
	fields, err := env.Word(word("${MISSING:-fallback}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, fields)
}

func TestWordAssignModifier(t *testing.T) {
	env := newEnv(t)
	fields, err := env.Word(word("${FOO:=bar}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"bar"}, fields)
	sym, ok := env.Scope.Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, "bar", sym.Value)
}

func TestWordLengthModifier(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("FOO", "abcde"))
	fields, err := env.Word(word("${#FOO}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, fields)
}

func TestWordUnboundUnderNounset(t *testing.T) {
	env := newEnv(t)
	env.NounsetMode = true
	_, err := env.Word(word("$MISSING", 0))
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "E3001", e.Code)
}

func TestWordBraceExpansion(t *testing.T) {
	env := newEnv(t)
	fields, err := env.Word(word("file{1,2,3}.txt", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"file1.txt", "file2.txt", "file3.txt"}, fields)
}

func TestWordBraceRange(t *testing.T) {
	env := newEnv(t)
	fields, err := env.Word(word("{1..3}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, fields)
}

func TestFieldSplittingEmptyQuotedVsUnquoted(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("EMPTY", ""))

	// An unquoted empty expansion contributes zero fields.
	fields, err := env.Word(word("$EMPTY", 0))
	require.NoError(t, err)
	assert.Empty(t, fields)

	// A quoted empty string is one empty field.
	fields, err = env.Word(word(`""`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{""}, fields)
}

func TestFieldSplittingOnIFS(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("LIST", "a b   c"))
	fields, err := env.Word(word("$LIST", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, fields)
}

func TestQuoteRemovalSuppressesSplitting(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("LIST", "a b c"))
	fields, err := env.Word(word(`"$LIST"`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"a b c"}, fields)
}

func TestWordsExpandsDollarAtPerArg(t *testing.T) {
	env := newEnv(t)
	fields, err := env.Word(word(`"$@"`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, fields)
}

func TestTrimPrefixSuffixModifiers(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("PATH_VAR", "/usr/local/bin"))

	fields, err := env.Word(word("${PATH_VAR%/*}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/local"}, fields)

	fields, err = env.Word(word("${PATH_VAR##*/}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"bin"}, fields)
}

func TestArithmeticExpansion(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("X", "6"))
	fields, err := env.Word(word("$((X * 7))", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, fields)
}

func TestMatchPattern(t *testing.T) {
	assert.True(t, MatchPattern("*.go", "main.go"))
	assert.False(t, MatchPattern("*.go", "main.txt"))
	assert.True(t, MatchPattern("[a-c]*", "banana"))
}

func TestIndirection(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("TARGET", "value"))
	require.NoError(t, env.Scope.Set("ref", "TARGET"))
	fields, err := env.Word(word("${!ref}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, fields)
}

func TestSubstringOffsetOnly(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", "0123456789"))
	fields, err := env.Word(word("${S:3}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"3456789"}, fields)
}

func TestSubstringOffsetAndLength(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", "0123456789"))
	fields, err := env.Word(word("${S:3:2}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"34"}, fields)
}

func TestSubstringNegativeOffset(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", "0123456789"))
	// A literal negative offset needs a leading space so it isn't parsed
	// as the ${var:-x} default-value family instead.
	fields, err := env.Word(word("${S: -3}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"789"}, fields)
}

func TestSubstringNegativeLength(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", "0123456789"))
	fields, err := env.Word(word("${S:2:-2}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"234567"}, fields)
}

func TestCaseModifiers(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", "hello world"))

	// Quoted so the space in the value doesn't get IFS-split across fields
	// before the case-conversion result can be checked.
	fields, err := env.Word(word(`"${S^}"`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello world"}, fields)

	fields, err = env.Word(word(`"${S^^}"`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"HELLO WORLD"}, fields)

	require.NoError(t, env.Scope.Set("U", "HELLO WORLD"))
	fields, err = env.Word(word(`"${U,}"`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"hELLO WORLD"}, fields)

	fields, err = env.Word(word(`"${U,,}"`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, fields)
}

func TestTransformQuoteRoundTrip(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", "hello world"))
	// Quoted here only to keep the whole ${S@Q} result as one field for
	// this assertion; the quoting the operator itself produces is what
	// gets checked by re-expanding it below as fresh, unquoted source text.
	fields, err := env.Word(word(`"${S@Q}"`, 0))
	require.NoError(t, err)
	require.Equal(t, []string{"'hello world'"}, fields)

	reexpanded, err := env.Word(word(fields[0], 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, reexpanded)
}

func TestTransformEscape(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", `line1\nline2`))
	// Quoted so the embedded newline the escape produces isn't itself
	// subject to IFS field splitting.
	fields, err := env.Word(word(`"${S@E}"`, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"line1\nline2"}, fields)
}

func TestTransformAssignForm(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Set("S", "bar"))
	fields, err := env.Word(word("${S@A}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"S='bar'"}, fields)
}

func TestTransformAttributes(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.Scope.Declare("S", "bar", symtable.AttrExported|symtable.AttrReadonly))

	fields, err := env.Word(word("${S@a}", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"xr"}, fields)
}
