package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapVars map[string]int64

func (m mapVars) GetInt(name string) (int64, error) { return m[name], nil }
func (m mapVars) SetInt(name string, v int64) error { m[name] = v; return nil }

func TestEvalPrecedence(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 % 3", 1},
		{"2 ** 3", 8},
		{"1 << 4", 16},
		{"6 & 3", 2},
		{"6 | 1", 7},
		{"1 == 1 && 2 != 3", 1},
		{"0 ? 5 : 9", 9},
		{"-5 + 10", 5},
		{"!0", 1},
		{"~0", -1},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			got, err := Eval(c.expr, mapVars{})
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestEvalVariableReadWrite(t *testing.T) {
	vars := mapVars{"x": 10}
	got, err := Eval("x + 5", vars)
	require.NoError(t, err)
	assert.Equal(t, int64(15), got)

	_, err = Eval("x = 20", vars)
	require.NoError(t, err)
	assert.Equal(t, int64(20), vars["x"])
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := Eval("1 / 0", mapVars{})
	require.Error(t, err)
}

func TestEvalIncrementDecrement(t *testing.T) {
	vars := mapVars{"x": 1}
	got, err := Eval("x++", vars)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	assert.Equal(t, int64(2), vars["x"])
}
