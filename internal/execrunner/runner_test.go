package execrunner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	res, err := Run(context.Background(), t.TempDir(), "sh", "-c", "echo hi; echo bye 1>&2")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "hi")
	assert.Contains(t, res.Output, "bye")
}

func TestRun_NonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), t.TempDir(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_ContextCancelKillsChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, t.TempDir(), "sh", "-c", "sleep 30")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, 5*time.Second, "child should have been killed promptly")
}

func TestRun_SpawnErrorReturnsEmptyOutput(t *testing.T) {
	res, err := Run(context.Background(), t.TempDir(), "definitely-not-a-real-binary-xyz")
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
	assert.Empty(t, res.Output)
}
