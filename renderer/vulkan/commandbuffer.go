package vulkan

import "fmt"

// CommandBufferState tracks a command buffer through its lifecycle:
// NotAllocated -> Ready -> Recording -> RecordingEnded -> Submitted, and
// back to Ready on Reset.
type CommandBufferState int

const (
	CommandBufferNotAllocated CommandBufferState = iota
	CommandBufferReady
	CommandBufferRecording
	CommandBufferRecordingEnded
	CommandBufferSubmitted
)

func (s CommandBufferState) String() string {
	switch s {
	case CommandBufferNotAllocated:
		return "not allocated"
	case CommandBufferReady:
		return "ready"
	case CommandBufferRecording:
		return "recording"
	case CommandBufferRecordingEnded:
		return "recording ended"
	case CommandBufferSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("CommandBufferState(%d)", int(s))
}

// CommandBuffer is a recordable unit of GPU work allocated from the
// device's graphics command pool.
type CommandBuffer struct {
	dev     Device
	Handle  Handle
	primary bool
	state   CommandBufferState
}

// AllocateCommandBuffer allocates a buffer in the Ready state.
func AllocateCommandBuffer(dev Device, primary bool) (*CommandBuffer, error) {
	h, res := dev.AllocateCommandBuffer(primary)
	if res != Success {
		return nil, resultError("allocate command buffer", res)
	}
	return &CommandBuffer{dev: dev, Handle: h, primary: primary, state: CommandBufferReady}, nil
}

func (cb *CommandBuffer) State() CommandBufferState { return cb.state }

func (cb *CommandBuffer) Primary() bool { return cb.primary }

// Free releases the buffer. The caller guarantees the GPU has finished
// with it.
func (cb *CommandBuffer) Free() {
	if cb.Handle != NullHandle {
		cb.dev.FreeCommandBuffer(cb.Handle)
	}
	cb.Handle = NullHandle
	cb.state = CommandBufferNotAllocated
}

// Begin starts recording. The three flags are independent usage hints.
func (cb *CommandBuffer) Begin(singleUse, renderpassContinue, simultaneousUse bool) error {
	if cb.state != CommandBufferReady {
		return fmt.Errorf("%w: begin command buffer in state %s", ErrInvalidState, cb.state)
	}
	var usage CommandBufferUsage
	if singleUse {
		usage |= CommandBufferUsageOneTimeSubmit
	}
	if renderpassContinue {
		usage |= CommandBufferUsageRenderPassContinue
	}
	if simultaneousUse {
		usage |= CommandBufferUsageSimultaneousUse
	}
	if res := cb.dev.BeginCommandBuffer(cb.Handle, usage); res != Success {
		return resultError("begin command buffer", res)
	}
	cb.state = CommandBufferRecording
	return nil
}

// End stops recording.
func (cb *CommandBuffer) End() error {
	if cb.state != CommandBufferRecording {
		return fmt.Errorf("%w: end command buffer in state %s", ErrInvalidState, cb.state)
	}
	if res := cb.dev.EndCommandBuffer(cb.Handle); res != Success {
		return resultError("end command buffer", res)
	}
	cb.state = CommandBufferRecordingEnded
	return nil
}

// UpdateSubmitted records that the queue accepted the buffer. Completion
// on the GPU is observed only through the fence passed to the submission.
func (cb *CommandBuffer) UpdateSubmitted() {
	cb.state = CommandBufferSubmitted
}

// Reset returns the buffer to Ready. The GPU must have finished with it.
func (cb *CommandBuffer) Reset() error {
	if cb.state == CommandBufferNotAllocated {
		return fmt.Errorf("%w: reset unallocated command buffer", ErrInvalidState)
	}
	if res := cb.dev.ResetCommandBuffer(cb.Handle); res != Success {
		return resultError("reset command buffer", res)
	}
	cb.state = CommandBufferReady
	return nil
}
