package vulkan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFenceCreatedSignaled(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFence(dev, true)
	require.NoError(t, err)

	require.NoError(t, f.Wait(1))
	assert.Zero(t, dev.count(fmt.Sprintf("wait fence %d", f.Handle)), "a signaled fence is not waited on")

	require.NoError(t, f.Reset())
	assert.False(t, f.Signaled())
	assert.False(t, dev.fences[f.Handle])

	require.Equal(t, Success, dev.QueueSubmit(dev.GraphicsQueue(), SubmitInfo{}, f.Handle))
	require.NoError(t, f.Wait(1))
	assert.True(t, f.Signaled())
	assert.Equal(t, 1, dev.count(fmt.Sprintf("wait fence %d", f.Handle)))
}

func TestFenceWaitTimeout(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFence(dev, false)
	require.NoError(t, err)

	err = f.Wait(10)
	require.ErrorIs(t, err, ErrTimeout, "nothing was submitted to signal it")
	assert.False(t, f.Signaled())

	require.Equal(t, Success, dev.QueueSubmit(dev.GraphicsQueue(), SubmitInfo{}, f.Handle))
	require.NoError(t, f.Wait(10))
	assert.True(t, f.Signaled())
}

func TestFenceResetUnsignaledIsNoop(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFence(dev, false)
	require.NoError(t, err)
	require.NoError(t, f.Reset())
	assert.False(t, f.Signaled())
}

func TestFenceDestroy(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFence(dev, true)
	require.NoError(t, err)

	f.Destroy()
	assert.Equal(t, NullHandle, f.Handle)
	assert.False(t, f.Signaled())
	assert.Zero(t, dev.liveCount("fence"))

	f.Destroy()
	assert.Equal(t, 1, dev.count("destroy fence"))
}

func TestSemaphore(t *testing.T) {
	dev := newFakeDevice()
	s, err := NewSemaphore(dev)
	require.NoError(t, err)
	assert.NotEqual(t, NullHandle, s.Handle)
	assert.Equal(t, 1, dev.liveCount("semaphore"))

	s.Destroy()
	s.Destroy()
	assert.Zero(t, dev.liveCount("semaphore"))
	assert.Equal(t, 1, dev.count("destroy semaphore"))
}
