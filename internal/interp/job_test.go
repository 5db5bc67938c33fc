package interp

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundJobRunsIsolatedAndWaitCollectsStatus(t *testing.T) {
	ip, out := newTestInterp(t)
	status, err := run(t, ip, "true & wait")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.NotZero(t, ip.LastBgPID)
	assert.Empty(t, out.String())
}

func TestWaitOnSpecificPIDReturnsThatJobsStatus(t *testing.T) {
	ip, _ := newTestInterp(t)
	_, err := run(t, ip, "false &")
	require.NoError(t, err)
	pid := ip.LastBgPID
	require.NotZero(t, pid)

	status, err := run(t, ip, "wait "+strconv.Itoa(pid))
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestWaitOnUnknownPIDIsUsageError(t *testing.T) {
	ip, _ := newTestInterp(t)
	var errBuf bytes.Buffer
	ip.Stderr = &errBuf

	status, err := run(t, ip, "wait 99999")
	require.NoError(t, err)
	assert.Equal(t, 2, status)
	assert.Contains(t, errBuf.String(), "no such job")
}

func TestBackgroundJobDoesNotLeakAssignmentsToForegroundScope(t *testing.T) {
	ip, _ := newTestInterp(t)
	_, err := run(t, ip, "( X=child_only ) & wait")
	require.NoError(t, err)
	_, ok := ip.Scope.Lookup("X")
	assert.False(t, ok)
}
