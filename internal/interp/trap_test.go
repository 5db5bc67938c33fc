package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitTrapFiresOnceAtShellExit(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, `trap 'echo bye' EXIT`)
	require.NoError(t, err)

	ip.FireExitTrap()
	assert.Equal(t, "bye\n", out.String())

	// A second call (e.g. a caller that runs both "exit" and the normal
	// end-of-process cleanup) must not fire the handler twice.
	ip.FireExitTrap()
	assert.Equal(t, "bye\n", out.String())
}

func TestPendingSignalTrapFiresBetweenCommands(t *testing.T) {
	ip, out := newTestInterp(t)
	_, err := run(t, ip, `trap 'echo caught' INT`)
	require.NoError(t, err)

	// Simulate signal delivery without touching the OS: watchSignals only
	// ever forwards a name into ip.pending, so injecting directly exercises
	// the same dispatch path checkTraps/runList drive between commands.
	ip.pending <- "INT"
	_, err = run(t, ip, "echo first ; echo second")
	require.NoError(t, err)
	assert.Equal(t, "caught\nfirst\nsecond\n", out.String())
}

func TestUnregisteredSignalIsDropped(t *testing.T) {
	ip, out := newTestInterp(t)
	ip.pending <- "TERM"
	_, err := run(t, ip, "echo ok")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out.String())
}
