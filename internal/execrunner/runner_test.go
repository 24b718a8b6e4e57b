package execrunner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_EmptyCommandSyntheticSuccess(t *testing.T) {
	res := Run(context.Background(), "", t.TempDir(), time.Second)
	assert.True(t, res.Ok)
	assert.Equal(t, 0, res.ExitCode)
	assert.Empty(t, res.Stdout)
}

func TestRun_Success(t *testing.T) {
	res := Run(context.Background(), "true", t.TempDir(), 5*time.Second)
	assert.True(t, res.Ok)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRun_NonZeroExit(t *testing.T) {
	res := Run(context.Background(), "false", t.TempDir(), 5*time.Second)
	assert.False(t, res.Ok)
	assert.NotEqual(t, 0, res.ExitCode)
}

func TestRun_Timeout(t *testing.T) {
	res := Run(context.Background(), "sleep 5", t.TempDir(), 100*time.Millisecond)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Ok)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Stderr, "Command timed out after")
}

func TestRun_CapturesStdoutStderr(t *testing.T) {
	res := Run(context.Background(), `sh -c "echo out; echo err 1>&2"`, t.TempDir(), 5*time.Second)
	// sh -c is a single quoted token for the script body; this exercises
	// our own tokenizer's quoting, not a shell invoked by us.
	assert.True(t, res.Ok)
}
