package vulkan

import "github.com/go-gl/mathgl/mgl32"

// Handle is an opaque device object handle. NullHandle refers to nothing.
type Handle uint64

const NullHandle Handle = 0

// Format is a VkFormat.
type Format int32

const (
	FormatUndefined       Format = 0
	FormatB8g8r8a8Unorm   Format = 44
	FormatB8g8r8a8Srgb    Format = 50
	FormatD32Sfloat       Format = 126
	FormatD24UnormS8Uint  Format = 129
	FormatD32SfloatS8Uint Format = 130
)

// ColorSpace is a VkColorSpaceKHR.
type ColorSpace int32

const ColorSpaceSrgbNonlinear ColorSpace = 0

// PresentMode is a VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo_relaxed"
	}
	return "unknown"
}

// ParsePresentMode is the inverse of PresentMode.String.
func ParsePresentMode(s string) (PresentMode, bool) {
	for _, m := range []PresentMode{PresentModeImmediate, PresentModeMailbox, PresentModeFifo, PresentModeFifoRelaxed} {
		if m.String() == s {
			return m, true
		}
	}
	return PresentModeFifo, false
}

// ImageUsage is a set of VkImageUsageFlagBits.
type ImageUsage uint32

const (
	ImageUsageColorAttachment        ImageUsage = 0x10
	ImageUsageDepthStencilAttachment ImageUsage = 0x20
)

// ImageAspect is a set of VkImageAspectFlagBits.
type ImageAspect uint32

const (
	ImageAspectColor ImageAspect = 0x1
	ImageAspectDepth ImageAspect = 0x2
)

// CommandBufferUsage is a set of VkCommandBufferUsageFlagBits.
type CommandBufferUsage uint32

const (
	CommandBufferUsageOneTimeSubmit      CommandBufferUsage = 0x1
	CommandBufferUsageRenderPassContinue CommandBufferUsage = 0x2
	CommandBufferUsageSimultaneousUse    CommandBufferUsage = 0x4
)

// PipelineStage is a set of VkPipelineStageFlagBits.
type PipelineStage uint32

const PipelineStageColorAttachmentOutput PipelineStage = 0x400

// Extent is a two-dimensional size in pixels.
type Extent struct {
	Width, Height uint32
}

// SurfaceCapabilities is the subset of VkSurfaceCapabilitiesKHR the
// swapchain negotiates with. MaxImageCount of zero means unbounded.
// A CurrentExtent width of math.MaxUint32 means the surface size is
// decided by the swapchain.
type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent
	MinImageExtent   Extent
	MaxImageExtent   Extent
	CurrentTransform uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// SwapchainSupport describes what the surface supports on the selected
// physical device.
type SwapchainSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

type SwapchainCreateInfo struct {
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent
	PresentMode   PresentMode
	PreTransform  uint32
}

type ImageCreateInfo struct {
	Width, Height uint32
	Format        Format
	Usage         ImageUsage
}

type RenderPassCreateInfo struct {
	ColorFormat Format
	DepthFormat Format
}

type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

type Rect struct {
	X, Y          int32
	Width, Height uint32
}

type RenderPassBeginInfo struct {
	RenderPass  Handle
	Framebuffer Handle
	Area        Rect
	ClearColor  mgl32.Vec4
	Depth       float32
	Stencil     uint32
}

// SubmitInfo describes a single command buffer submission: wait on
// WaitSemaphore at WaitStage, then signal SignalSemaphore.
type SubmitInfo struct {
	CommandBuffer   Handle
	WaitSemaphore   Handle
	WaitStage       PipelineStage
	SignalSemaphore Handle
}

type PresentInfo struct {
	WaitSemaphore Handle
	Swapchain     Handle
	ImageIndex    uint32
}

// Device is the logical device together with its queues, graphics command
// pool and the surface it presents to. It is created once by the platform
// layer and handed to New, which takes ownership.
//
// Methods that can fail on the GPU return the raw Result; the objects in
// this package turn them into errors.
type Device interface {
	GraphicsQueue() Handle
	PresentQueue() Handle

	// WaitIdle blocks until every queue of the device is idle.
	WaitIdle() Result

	// QuerySwapchainSupport re-reads the surface capabilities, formats and
	// present modes.
	QuerySwapchainSupport() (SwapchainSupport, error)

	// DetectDepthFormat returns the first supported depth attachment
	// format.
	DetectDepthFormat() (Format, error)

	CreateFence(signaled bool) (Handle, Result)
	DestroyFence(fence Handle)
	WaitForFence(fence Handle, timeout uint64) Result
	ResetFence(fence Handle) Result
	CreateSemaphore() (Handle, Result)
	DestroySemaphore(sem Handle)

	AllocateCommandBuffer(primary bool) (Handle, Result)
	FreeCommandBuffer(cb Handle)
	BeginCommandBuffer(cb Handle, usage CommandBufferUsage) Result
	EndCommandBuffer(cb Handle) Result
	ResetCommandBuffer(cb Handle) Result
	CmdSetViewport(cb Handle, vp Viewport)
	CmdSetScissor(cb Handle, scissor Rect)
	CmdBeginRenderPass(cb Handle, info RenderPassBeginInfo)
	CmdEndRenderPass(cb Handle)

	CreateSwapchain(info SwapchainCreateInfo) (Handle, []Handle, Result)
	DestroySwapchain(swapchain Handle)
	AcquireNextImage(swapchain Handle, timeout uint64, sem, fence Handle) (uint32, Result)

	CreateImage(info ImageCreateInfo) (Handle, Result)
	DestroyImage(image Handle)
	CreateImageView(image Handle, format Format, aspect ImageAspect) (Handle, Result)
	DestroyImageView(view Handle)

	CreateRenderPass(info RenderPassCreateInfo) (Handle, Result)
	DestroyRenderPass(rp Handle)
	CreateFramebuffer(rp Handle, attachments []Handle, width, height uint32) (Handle, Result)
	DestroyFramebuffer(fb Handle)

	QueueSubmit(queue Handle, info SubmitInfo, fence Handle) Result
	QueuePresent(queue Handle, info PresentInfo) Result

	// Close destroys the command pool, the logical device, the surface,
	// the debug callback and the instance, in that order.
	Close()
}
