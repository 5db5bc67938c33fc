package symtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndLookup(t *testing.T) {
	s := NewGlobal()
	require.NoError(t, s.Set("FOO", "bar"))
	sym, ok := s.Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, "bar", sym.Value)
}

func TestUnsetVsEmptyDistinction(t *testing.T) {
	s := NewGlobal()
	assert.False(t, s.IsSet("FOO"))
	require.NoError(t, s.Set("FOO", ""))
	assert.True(t, s.IsSet("FOO"))
}

func TestChildFrameShadowsParent(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Set("X", "outer"))
	child := parent.Push("f")
	require.NoError(t, child.Declare("X", "inner", 0))

	sym, ok := child.Lookup("X")
	require.True(t, ok)
	assert.Equal(t, "inner", sym.Value)

	sym, ok = parent.Lookup("X")
	require.True(t, ok)
	assert.Equal(t, "outer", sym.Value)
}

func TestSetWritesThroughToOwningFrame(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Set("X", "outer"))
	child := parent.Push("f")
	require.NoError(t, child.Set("X", "changed"))

	sym, _ := parent.Lookup("X")
	assert.Equal(t, "changed", sym.Value)
}

func TestReadonlyRejectsSetAndUnset(t *testing.T) {
	s := NewGlobal()
	require.NoError(t, s.Set("FOO", "bar"))
	s.MarkReadonly("FOO")

	err := s.Set("FOO", "baz")
	require.Error(t, err)
	var roErr *ReadonlyError
	require.ErrorAs(t, err, &roErr)

	err = s.Unset("FOO")
	require.Error(t, err)
}

func TestNamerefForwardsReadAndWrite(t *testing.T) {
	s := NewGlobal()
	require.NoError(t, s.Set("target", "value"))
	require.NoError(t, s.SetNameref("ref", "target"))

	sym, ok := s.Lookup("ref")
	require.True(t, ok)
	assert.Equal(t, "value", sym.Value)

	require.NoError(t, s.Set("ref", "updated"))
	sym, _ = s.Lookup("target")
	assert.Equal(t, "updated", sym.Value)
}

func TestNamerefSelfCycleRejected(t *testing.T) {
	s := NewGlobal()
	err := s.SetNameref("a", "a")
	require.Error(t, err)
	var cycleErr *NamerefCycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestUpperLowerCaseAttributes(t *testing.T) {
	s := NewGlobal()
	require.NoError(t, s.Declare("UP", "", AttrUpperCase))
	require.NoError(t, s.Set("UP", "mixedCase"))
	sym, _ := s.Lookup("UP")
	assert.Equal(t, "MIXEDCASE", sym.Value)

	require.NoError(t, s.Declare("LOW", "", AttrLowerCase))
	require.NoError(t, s.Set("LOW", "MixedCase"))
	sym, _ = s.Lookup("LOW")
	assert.Equal(t, "mixedcase", sym.Value)
}

func TestExportedOuterFrameFirstInnerWins(t *testing.T) {
	parent := NewGlobal()
	require.NoError(t, parent.Declare("A", "outer", AttrExported))
	child := parent.Push("f")
	require.NoError(t, child.Declare("A", "inner", AttrExported))

	exported := child.Exported()
	var got string
	for _, sym := range exported {
		if sym.Name == "A" {
			got = sym.Value
		}
	}
	assert.Equal(t, "inner", got)
}
