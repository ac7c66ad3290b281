package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBufferLifecycle(t *testing.T) {
	dev := newFakeDevice()
	cb, err := AllocateCommandBuffer(dev, true)
	require.NoError(t, err)
	assert.True(t, cb.Primary())
	assert.Equal(t, CommandBufferReady, cb.State())

	require.NoError(t, cb.Begin(true, false, false))
	assert.Equal(t, CommandBufferRecording, cb.State())

	require.NoError(t, cb.End())
	assert.Equal(t, CommandBufferRecordingEnded, cb.State())

	cb.UpdateSubmitted()
	assert.Equal(t, CommandBufferSubmitted, cb.State())

	require.NoError(t, cb.Reset())
	assert.Equal(t, CommandBufferReady, cb.State())

	cb.Free()
	assert.Equal(t, CommandBufferNotAllocated, cb.State())
	assert.Equal(t, NullHandle, cb.Handle)
	assert.Zero(t, dev.liveCount("command buffer"))
}

func TestCommandBufferInvalidTransitions(t *testing.T) {
	dev := newFakeDevice()
	cb, err := AllocateCommandBuffer(dev, true)
	require.NoError(t, err)

	assert.ErrorIs(t, cb.End(), ErrInvalidState)

	require.NoError(t, cb.Begin(false, false, false))
	assert.ErrorIs(t, cb.Begin(false, false, false), ErrInvalidState)
	require.NoError(t, cb.End())
	assert.ErrorIs(t, cb.End(), ErrInvalidState)

	cb.UpdateSubmitted()
	assert.ErrorIs(t, cb.Begin(false, false, false), ErrInvalidState, "a submitted buffer must be reset first")

	cb.Free()
	assert.ErrorIs(t, cb.Reset(), ErrInvalidState)
}

func TestCommandBufferStateString(t *testing.T) {
	assert.Equal(t, "recording ended", CommandBufferRecordingEnded.String())
	assert.Equal(t, "CommandBufferState(42)", CommandBufferState(42).String())
}
