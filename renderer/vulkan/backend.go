// Package vulkan is the frame execution core of the Vulkan renderer
// backend: synchronization primitives, command buffers, the swapchain and
// its framebuffers, and the BeginFrame/EndFrame orchestration that ties
// them together, including swapchain recreation on resize.
//
// The package talks to the GPU only through the Device interface; package
// vkdevice implements it on top of the Vulkan API.
package vulkan

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hellhand/koengine/internal/logging"
	"github.com/hellhand/koengine/internal/teardown"
	"github.com/hellhand/koengine/renderer"
)

var _ renderer.Backend = (*Backend)(nil)

type Options struct {
	// PresentMode is used when the surface supports it; FIFO otherwise.
	PresentMode PresentMode

	// WaitTimeout bounds fence waits and image acquisition, in
	// nanoseconds. Zero means effectively unbounded.
	WaitTimeout uint64

	ClearColor mgl32.Vec4

	Logger *slog.Logger
}

// frameSlot is one of the rotating per-frame synchronization contexts.
type frameSlot struct {
	imageAvailable *Semaphore
	queueComplete  *Semaphore
	inFlight       *Fence
}

// Backend renders frames to a window surface. It is driven from a single
// goroutine; nothing in it is safe for concurrent use.
type Backend struct {
	dev     Device
	log     *slog.Logger
	timeout uint64

	cleanup *teardown.Stack

	// Size the swapchain was last built for, and the size most recently
	// reported by OnResized.
	framebufferWidth  uint32
	framebufferHeight uint32
	pendingWidth      uint32
	pendingHeight     uint32

	sizeGeneration     uint64
	sizeLastGeneration uint64

	swapchain      *Swapchain
	renderPass     *RenderPass
	commandBuffers []*CommandBuffer // indexed by image index

	slots             []frameSlot // indexed by frame slot
	maxFramesInFlight uint32
	imagesInFlight    imageOwners

	state        frameState
	currentFrame uint32
	imageIndex   uint32
	frameNumber  uint64
}

// New builds the swapchain, render pass, framebuffers, command buffers and
// per-frame synchronization objects for a surface of the given size. New
// takes ownership of dev: it is closed by Shutdown, or before New returns
// an error.
func New(dev Device, width, height uint32, opts Options) (*Backend, error) {
	log := logging.OrNop(opts.Logger)
	b := &Backend{
		dev:               dev,
		log:               log,
		timeout:           opts.WaitTimeout,
		cleanup:           teardown.New(log),
		framebufferWidth:  width,
		framebufferHeight: height,
		pendingWidth:      width,
		pendingHeight:     height,
	}
	if b.timeout == 0 {
		b.timeout = math.MaxUint64
	}
	b.cleanup.Push("device", dev.Close)

	if err := b.init(opts); err != nil {
		b.cleanup.Release()
		b.state = stateShutdown
		return nil, err
	}
	log.Info("vulkan renderer initialized",
		"images", b.swapchain.ImageCount,
		"frames_in_flight", b.maxFramesInFlight,
		"present_mode", b.swapchain.PresentMode,
		"extent", fmt.Sprintf("%dx%d", b.framebufferWidth, b.framebufferHeight))
	return b, nil
}

func (b *Backend) init(opts Options) error {
	if b.framebufferWidth == 0 || b.framebufferHeight == 0 {
		return fmt.Errorf("initialize: %w", ErrZeroExtent)
	}

	sc, err := NewSwapchain(b.dev, b.framebufferWidth, b.framebufferHeight, opts.PresentMode)
	if err != nil {
		return fmt.Errorf("create swapchain: %w", err)
	}
	b.swapchain = sc
	b.cleanup.Push("swapchain", func() { b.swapchain.Destroy() })
	b.framebufferWidth = sc.Extent.Width
	b.framebufferHeight = sc.Extent.Height
	b.log.Debug("swapchain created", "images", sc.ImageCount, "format", sc.ImageFormat.Format)

	rp, err := NewRenderPass(b.dev, sc.ImageFormat.Format, sc.DepthAttachment.Format,
		mgl32.Vec4{0, 0, float32(b.framebufferWidth), float32(b.framebufferHeight)},
		opts.ClearColor, 1.0, 0)
	if err != nil {
		return err
	}
	b.renderPass = rp
	b.cleanup.Push("render pass", func() { b.renderPass.Destroy() })

	b.cleanup.Push("framebuffers", b.destroyFramebuffers)
	if err := b.regenerateFramebuffers(); err != nil {
		return err
	}

	b.cleanup.Push("command buffers", b.freeCommandBuffers)
	if err := b.createCommandBuffers(); err != nil {
		return err
	}

	b.cleanup.Push("sync objects", b.destroySyncObjects)
	if err := b.createSyncObjects(sc.MaxFramesInFlight); err != nil {
		return err
	}
	b.imagesInFlight = newImageOwners(sc.ImageCount)
	return nil
}

func (b *Backend) createSyncObjects(n uint32) error {
	b.maxFramesInFlight = n
	b.slots = make([]frameSlot, 0, n)
	for i := uint32(0); i < n; i++ {
		var slot frameSlot
		var err error
		if slot.imageAvailable, err = NewSemaphore(b.dev); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if slot.queueComplete, err = NewSemaphore(b.dev); err != nil {
			slot.imageAvailable.Destroy()
			return fmt.Errorf("frame %d: %w", i, err)
		}
		// Created signaled so the first wait on each slot returns at once.
		if slot.inFlight, err = NewFence(b.dev, true); err != nil {
			slot.imageAvailable.Destroy()
			slot.queueComplete.Destroy()
			return fmt.Errorf("frame %d: %w", i, err)
		}
		b.slots = append(b.slots, slot)
	}
	return nil
}

func (b *Backend) destroySyncObjects() {
	for i := range b.slots {
		b.slots[i].imageAvailable.Destroy()
		b.slots[i].queueComplete.Destroy()
		b.slots[i].inFlight.Destroy()
	}
	b.slots = nil
	b.imagesInFlight.clear()
}

// Shutdown waits for the device to go idle, then releases sync objects,
// command buffers, framebuffers, the render pass, the swapchain and the
// device, in that order. Calling it again has no effect.
func (b *Backend) Shutdown() {
	if b.state == stateShutdown {
		return
	}
	if res := b.dev.WaitIdle(); res != Success {
		b.log.Error("wait for device idle before shutdown", "result", res)
	}
	b.cleanup.Release()
	b.state = stateShutdown
	b.log.Info("vulkan renderer shut down", "frames", b.frameNumber)
}

// OnResized records the new surface size and bumps the size generation.
// The swapchain is rebuilt by the next BeginFrame; repeated calls before
// then coalesce into one rebuild. A zero width or height marks the surface
// minimized: frames are skipped and the generation is left alone until a
// usable size arrives.
func (b *Backend) OnResized(width, height uint32) {
	b.pendingWidth = width
	b.pendingHeight = height
	if width == 0 || height == 0 {
		b.log.Debug("vulkan renderer minimized", "width", width, "height", height)
		return
	}
	b.sizeGeneration++
	b.log.Debug("vulkan renderer resized", "width", width, "height", height, "generation", b.sizeGeneration)
}

// SetClearColor changes the color the render pass clears to.
func (b *Backend) SetClearColor(c mgl32.Vec4) {
	b.renderPass.ClearColor = c
}

// CurrentFrame returns the frame slot the next frame will use.
func (b *Backend) CurrentFrame() uint32 { return b.currentFrame }

// ImageIndex returns the swapchain image acquired by the last BeginFrame.
func (b *Backend) ImageIndex() uint32 { return b.imageIndex }

// FrameNumber returns the number of frames submitted so far.
func (b *Backend) FrameNumber() uint64 { return b.frameNumber }

func (b *Backend) MaxFramesInFlight() uint32 { return b.maxFramesInFlight }

// FramebufferSize returns the size the swapchain was last built for.
func (b *Backend) FramebufferSize() (width, height uint32) {
	return b.framebufferWidth, b.framebufferHeight
}

// SizeGenerations returns the resize counter and the value it had when the
// swapchain was last rebuilt. They differ while a rebuild is pending.
func (b *Backend) SizeGenerations() (generation, last uint64) {
	return b.sizeGeneration, b.sizeLastGeneration
}

// Swapchain returns the current swapchain.
func (b *Backend) Swapchain() *Swapchain { return b.swapchain }

// CommandBuffer returns the command buffer being recorded, or nil outside
// BeginFrame/EndFrame.
func (b *Backend) CommandBuffer() *CommandBuffer {
	if b.state != stateRecording {
		return nil
	}
	return b.commandBuffers[b.imageIndex]
}

func notReady(reason string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", renderer.ErrNotReady, reason)
	}
	return fmt.Errorf("%w: %s: %w", renderer.ErrNotReady, reason, err)
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrOutOfDate)
}
