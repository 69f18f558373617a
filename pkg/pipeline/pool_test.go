package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAcquireRelease(t *testing.T) {
	p := NewPool(1)
	assert.True(t, p.TryAcquire())
	assert.False(t, p.TryAcquire())
	p.Release()
	assert.True(t, p.TryAcquire())
}

func TestCommandProcessCapturesOutput(t *testing.T) {
	cp, err := StartCommandProcess("echo-step", "echo hello; echo world 1>&2", 0)
	require.NoError(t, err)

	var lines []OutputLine
	for line := range cp.Lines {
		lines = append(lines, line)
	}
	cp.Wait()

	finished, procErr, timedOut := cp.Poll()
	assert.True(t, finished)
	assert.NoError(t, procErr)
	assert.False(t, timedOut)
	assert.Len(t, lines, 2)
}

func TestCommandProcessNonZeroExit(t *testing.T) {
	cp, err := StartCommandProcess("fail-step", "exit 7", 0)
	require.NoError(t, err)
	for range cp.Lines {
	}
	cp.Wait()

	_, procErr, _ := cp.Poll()
	assert.Error(t, procErr)
}

func TestCommandProcessTimeout(t *testing.T) {
	cp, err := StartCommandProcess("slow-step", "sleep 5", 20*time.Millisecond)
	require.NoError(t, err)
	for range cp.Lines {
	}
	cp.Wait()

	finished, _, timedOut := cp.Poll()
	assert.True(t, finished)
	assert.True(t, timedOut)
}
