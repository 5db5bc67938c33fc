package glob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasMeta(t *testing.T) {
	assert.True(t, HasMeta("*.go"))
	assert.True(t, HasMeta("file?.txt"))
	assert.True(t, HasMeta("[abc]"))
	assert.True(t, HasMeta("@(foo|bar)"))
	assert.False(t, HasMeta("plainfile.txt"))
}

func TestExpandPathRelative(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	matches := ExpandPath(dir, "*.txt")
	assert.Equal(t, []string{"a.txt", "b.txt"}, matches)
}

func TestExpandPathNoMatchReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	matches := ExpandPath(dir, "*.nope")
	assert.Empty(t, matches)
}

func TestExpandPathDotfilesHiddenByDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible"), nil, 0644))

	matches := ExpandPath(dir, "*")
	assert.Equal(t, []string{"visible"}, matches)
}
