package vulkan

import (
	"errors"
	"fmt"

	"github.com/hellhand/koengine/internal/logging"
)

type frameState int

const (
	stateIdle frameState = iota
	stateAwaitingImage
	stateRecording
	stateSubmitted
	stateRecreating
	stateShutdown
)

func (s frameState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAwaitingImage:
		return "awaiting image"
	case stateRecording:
		return "recording"
	case stateSubmitted:
		return "submitted"
	case stateRecreating:
		return "recreating"
	case stateShutdown:
		return "shut down"
	}
	return fmt.Sprintf("frameState(%d)", int(s))
}

const noOwner = -1

// imageOwners maps each swapchain image to the frame slot whose in-flight
// fence last guarded it. It never owns the fences.
type imageOwners []int

func newImageOwners(n uint32) imageOwners {
	o := make(imageOwners, n)
	o.clear()
	return o
}

func (o imageOwners) owner(image uint32) (int, bool) {
	slot := o[image]
	return slot, slot != noOwner
}

func (o imageOwners) set(image, slot uint32) { o[image] = int(slot) }

func (o imageOwners) clear() {
	for i := range o {
		o[i] = noOwner
	}
}

// flippedViewport covers the framebuffer with Y pointing up, so clip space
// has a bottom-left origin.
func flippedViewport(width, height uint32) Viewport {
	return Viewport{
		X:        0,
		Y:        float32(height),
		Width:    float32(width),
		Height:   -float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

// BeginFrame prepares the next frame for recording. It returns an error
// wrapping renderer.ErrNotReady when the frame should be skipped: while the
// swapchain is being rebuilt, right after a resize, when the window is
// minimized, or when the image cannot be acquired. Any other error is
// fatal.
func (b *Backend) BeginFrame(deltaTime float64) error {
	switch b.state {
	case stateIdle:
	case stateRecreating:
		if res := b.dev.WaitIdle(); res != Success {
			return resultError("wait idle", res)
		}
		b.log.Debug("recreating swapchain, booting")
		return notReady("recreating swapchain", nil)
	default:
		return fmt.Errorf("%w: begin frame while %s", ErrInvalidState, b.state)
	}

	if b.pendingWidth == 0 || b.pendingHeight == 0 {
		return notReady("zero-sized surface", ErrZeroExtent)
	}

	if b.sizeGeneration != b.sizeLastGeneration {
		if res := b.dev.WaitIdle(); res != Success {
			return resultError("wait idle", res)
		}
		if err := b.recreateSwapchain(); err != nil {
			if !errors.Is(err, ErrZeroExtent) {
				b.log.Error("swapchain recreation failed", "err", err)
			}
			return notReady("recreate swapchain", err)
		}
		b.log.Debug("resized, booting")
		return notReady("swapchain recreated", nil)
	}

	slot := &b.slots[b.currentFrame]
	if err := slot.inFlight.Wait(b.timeout); err != nil {
		if errors.Is(err, ErrTimeout) {
			b.log.Warn("in-flight fence wait timed out", "frame", b.currentFrame)
			return notReady("in-flight fence", err)
		}
		return fmt.Errorf("frame %d: %w", b.currentFrame, err)
	}

	b.state = stateAwaitingImage
	index, err := b.swapchain.AcquireNextImageIndex(b.timeout, slot.imageAvailable, nil)
	if err != nil {
		b.state = stateIdle
		if errors.Is(err, ErrOutOfDate) {
			b.scheduleRecreate("acquire")
		}
		if errors.Is(err, ErrDeviceLost) {
			return err
		}
		if !isTransient(err) {
			b.log.Error("acquire next image failed", "err", err)
		}
		return notReady("acquire next image", err)
	}
	b.imageIndex = index

	// Command buffers follow the image index, synchronization objects
	// follow the frame slot.
	cb := b.commandBuffers[index]
	if err := cb.Reset(); err != nil {
		b.state = stateIdle
		return err
	}
	if err := cb.Begin(false, false, false); err != nil {
		b.state = stateIdle
		return err
	}

	b.dev.CmdSetViewport(cb.Handle, flippedViewport(b.framebufferWidth, b.framebufferHeight))
	b.dev.CmdSetScissor(cb.Handle, Rect{Width: b.framebufferWidth, Height: b.framebufferHeight})

	if err := b.renderPass.Begin(cb, b.swapchain.Framebuffers[index]); err != nil {
		b.state = stateIdle
		return err
	}
	b.state = stateRecording
	logging.Trace(b.log, "frame begun", "frame", b.currentFrame, "image", index, "dt", deltaTime)
	return nil
}

// EndFrame finishes recording, submits the command buffer and presents the
// image. A surface that went out of date while presenting is not an error;
// the swapchain is rebuilt on the next BeginFrame.
func (b *Backend) EndFrame(deltaTime float64) error {
	if b.state != stateRecording {
		return fmt.Errorf("%w: end frame while %s", ErrInvalidState, b.state)
	}
	index := b.imageIndex
	cb := b.commandBuffers[index]

	b.renderPass.End(cb)
	if err := cb.End(); err != nil {
		b.state = stateIdle
		return err
	}

	// Another slot may still be rendering to this image when there are
	// more images than frames in flight.
	if owner, ok := b.imagesInFlight.owner(index); ok {
		if err := b.slots[owner].inFlight.Wait(b.timeout); err != nil {
			b.state = stateIdle
			logging.Fatal(b.log, "image fence wait failed", "image", index, "err", err)
			return fmt.Errorf("image %d: %w", index, err)
		}
	}

	slot := &b.slots[b.currentFrame]
	if err := slot.inFlight.Reset(); err != nil {
		b.state = stateIdle
		return err
	}

	// Only color output waits for the image; earlier stages may run
	// before it is available.
	res := b.dev.QueueSubmit(b.dev.GraphicsQueue(), SubmitInfo{
		CommandBuffer:   cb.Handle,
		WaitSemaphore:   slot.imageAvailable.Handle,
		WaitStage:       PipelineStageColorAttachmentOutput,
		SignalSemaphore: slot.queueComplete.Handle,
	}, slot.inFlight.Handle)
	if res != Success {
		b.state = stateIdle
		logging.Fatal(b.log, "queue submit failed", "op", "queue submit", "result", res)
		if err := b.resetSlot(slot); err != nil {
			b.log.Error("frame slot not restored after failed submit", "frame", b.currentFrame, "err", err)
		}
		return resultError("queue submit", res)
	}
	b.imagesInFlight.set(index, b.currentFrame)
	cb.UpdateSubmitted()
	b.state = stateSubmitted

	err := b.swapchain.Present(b.dev.PresentQueue(), slot.queueComplete, index)
	b.currentFrame = (b.currentFrame + 1) % b.maxFramesInFlight
	b.frameNumber++
	b.state = stateIdle

	if err != nil {
		if errors.Is(err, ErrOutOfDate) {
			b.scheduleRecreate("present")
			return nil
		}
		logging.Fatal(b.log, "present failed", "err", err)
		return err
	}
	logging.Trace(b.log, "frame ended", "image", index, "dt", deltaTime)
	return nil
}

// resetSlot makes a slot usable again after its frame was abandoned
// between acquire and submit. The fence was reset with nothing left to
// signal it and the image semaphore holds the acquire's signal, so both
// are replaced. The acquired image is never presented, so the swapchain is
// rebuilt on the next BeginFrame to hand it back.
func (b *Backend) resetSlot(slot *frameSlot) error {
	if res := b.dev.WaitIdle(); res != Success {
		return resultError("wait idle", res)
	}
	fence, err := NewFence(b.dev, true)
	if err != nil {
		return err
	}
	sem, err := NewSemaphore(b.dev)
	if err != nil {
		fence.Destroy()
		return err
	}
	slot.inFlight.Destroy()
	slot.imageAvailable.Destroy()
	slot.inFlight = fence
	slot.imageAvailable = sem
	b.scheduleRecreate("failed submit")
	return nil
}
