package vulkan

import (
	"fmt"

	"github.com/hellhand/koengine/internal/logging"
)

// scheduleRecreate forces a swapchain rebuild on the next BeginFrame even
// though the window size did not change.
func (b *Backend) scheduleRecreate(reason string) {
	b.sizeGeneration++
	b.log.Debug("swapchain out of date", "during", reason, "generation", b.sizeGeneration)
}

// recreateSwapchain rebuilds every size-dependent resource for the pending
// size. A zero pending size (minimized window) is refused with
// ErrZeroExtent before anything is destroyed, and the rebuild stays
// pending.
func (b *Backend) recreateSwapchain() error {
	if b.state == stateRecreating {
		return fmt.Errorf("%w: recreation already in progress", ErrInvalidState)
	}
	if b.pendingWidth == 0 || b.pendingHeight == 0 {
		logging.Trace(b.log, "recreate skipped for zero-sized surface",
			"width", b.pendingWidth, "height", b.pendingHeight)
		return fmt.Errorf("recreate swapchain: %w", ErrZeroExtent)
	}

	b.state = stateRecreating
	defer func() { b.state = stateIdle }()

	if res := b.dev.WaitIdle(); res != Success {
		return resultError("wait idle", res)
	}
	b.imagesInFlight.clear()

	if err := b.swapchain.Recreate(b.pendingWidth, b.pendingHeight); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	b.framebufferWidth = b.swapchain.Extent.Width
	b.framebufferHeight = b.swapchain.Extent.Height
	b.renderPass.SetExtent(b.framebufferWidth, b.framebufferHeight)

	sc := b.swapchain
	if sc.ImageFormat.Format != b.renderPass.ColorFormat || sc.DepthAttachment.Format != b.renderPass.DepthFormat {
		b.destroyFramebuffers()
		if err := b.renderPass.Rebuild(sc.ImageFormat.Format, sc.DepthAttachment.Format); err != nil {
			return err
		}
		b.log.Info("render pass rebuilt for new attachment formats",
			"color", sc.ImageFormat.Format, "depth", sc.DepthAttachment.Format)
	}

	if err := b.regenerateFramebuffers(); err != nil {
		return err
	}
	if err := b.createCommandBuffers(); err != nil {
		return err
	}
	b.imagesInFlight = newImageOwners(b.swapchain.ImageCount)

	b.sizeLastGeneration = b.sizeGeneration
	b.log.Info("swapchain recreated",
		"width", b.framebufferWidth, "height", b.framebufferHeight,
		"images", b.swapchain.ImageCount, "generation", b.sizeGeneration)
	return nil
}

// regenerateFramebuffers builds one framebuffer per swapchain image, each
// pairing the image's view with the shared depth attachment.
func (b *Backend) regenerateFramebuffers() error {
	b.destroyFramebuffers()
	sc := b.swapchain
	if len(sc.Framebuffers) != int(sc.ImageCount) {
		sc.Framebuffers = make([]*Framebuffer, sc.ImageCount)
	}
	for i := uint32(0); i < sc.ImageCount; i++ {
		fb, err := NewFramebuffer(b.dev, b.renderPass, b.framebufferWidth, b.framebufferHeight,
			[]Handle{sc.Views[i], sc.DepthAttachment.View})
		if err != nil {
			return fmt.Errorf("framebuffer %d: %w", i, err)
		}
		sc.Framebuffers[i] = fb
	}
	return nil
}

func (b *Backend) destroyFramebuffers() {
	if b.swapchain == nil {
		return
	}
	for i, fb := range b.swapchain.Framebuffers {
		if fb != nil {
			fb.Destroy()
			b.swapchain.Framebuffers[i] = nil
		}
	}
}

// createCommandBuffers allocates one primary command buffer per swapchain
// image, freeing any previous set first.
func (b *Backend) createCommandBuffers() error {
	b.freeCommandBuffers()
	n := b.swapchain.ImageCount
	b.commandBuffers = make([]*CommandBuffer, 0, n)
	for i := uint32(0); i < n; i++ {
		cb, err := AllocateCommandBuffer(b.dev, true)
		if err != nil {
			return fmt.Errorf("command buffer %d: %w", i, err)
		}
		b.commandBuffers = append(b.commandBuffers, cb)
	}
	b.log.Debug("command buffers allocated", "count", n)
	return nil
}

func (b *Backend) freeCommandBuffers() {
	for _, cb := range b.commandBuffers {
		cb.Free()
	}
	b.commandBuffers = nil
}
