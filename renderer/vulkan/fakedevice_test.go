package vulkan

import (
	"fmt"
	"math"
	"slices"
)

// fakeDevice records every call made to it. Submitted GPU work completes
// when its fence is waited on; a reset fence nothing was submitted against
// never signals.
type fakeDevice struct {
	next   Handle
	live   map[Handle]string
	fences map[Handle]bool
	// pending holds fences with a submission queued against them.
	pending map[Handle]bool
	events []string
	closed bool

	support     SwapchainSupport
	depthFormat Format

	acquireCount uint32
	imageCount   uint32

	// Results consumed one call at a time; Success once drained.
	acquireResults []Result
	presentResults []Result
	fenceResults   []Result

	submitResult     Result
	renderPassResult Result
	swapchainResult  Result

	submits   []SubmitInfo
	presents  []PresentInfo
	viewports []Viewport
	scissors  []Rect
	begins    []RenderPassBeginInfo
	swapInfos []SwapchainCreateInfo
	passInfos []RenderPassCreateInfo
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		next:   100,
		live:   map[Handle]string{},
		fences:  map[Handle]bool{},
		pending: map[Handle]bool{},
		support: SwapchainSupport{
			Capabilities: SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  Extent{Width: math.MaxUint32, Height: math.MaxUint32},
				MinImageExtent: Extent{Width: 1, Height: 1},
				MaxImageExtent: Extent{Width: 4096, Height: 4096},
			},
			Formats: []SurfaceFormat{
				{Format: FormatB8g8r8a8Unorm, ColorSpace: ColorSpaceSrgbNonlinear},
				{Format: FormatB8g8r8a8Srgb, ColorSpace: ColorSpaceSrgbNonlinear},
			},
			PresentModes: []PresentMode{PresentModeFifo, PresentModeMailbox},
		},
		depthFormat: FormatD32Sfloat,
	}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) create(kind string) Handle {
	d.next++
	d.live[d.next] = kind
	d.record("create %s", kind)
	return d.next
}

func (d *fakeDevice) destroy(kind string, h Handle) {
	if d.live[h] != kind {
		panic(fmt.Sprintf("destroy %s %d: not a live %s", kind, h, kind))
	}
	delete(d.live, h)
	d.record("destroy %s", kind)
}

func (d *fakeDevice) liveCount(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (d *fakeDevice) count(event string) int {
	n := 0
	for _, e := range d.events {
		if e == event {
			n++
		}
	}
	return n
}

func (d *fakeDevice) firstIndex(event string) int { return slices.Index(d.events, event) }

func pop(results *[]Result) Result {
	if len(*results) == 0 {
		return Success
	}
	r := (*results)[0]
	*results = (*results)[1:]
	return r
}

func (d *fakeDevice) GraphicsQueue() Handle { return 1 }
func (d *fakeDevice) PresentQueue() Handle  { return 2 }

func (d *fakeDevice) WaitIdle() Result {
	d.record("wait idle")
	for f := range d.pending {
		d.fences[f] = true
	}
	clear(d.pending)
	return Success
}

func (d *fakeDevice) QuerySwapchainSupport() (SwapchainSupport, error) {
	return d.support, nil
}

func (d *fakeDevice) DetectDepthFormat() (Format, error) { return d.depthFormat, nil }

func (d *fakeDevice) CreateFence(signaled bool) (Handle, Result) {
	h := d.create("fence")
	d.fences[h] = signaled
	return h, Success
}

func (d *fakeDevice) DestroyFence(f Handle) {
	d.destroy("fence", f)
	delete(d.fences, f)
	delete(d.pending, f)
}

func (d *fakeDevice) WaitForFence(f Handle, _ uint64) Result {
	d.record("wait fence %d", f)
	if r := pop(&d.fenceResults); r != Success {
		return r
	}
	if !d.fences[f] && !d.pending[f] {
		return Timeout
	}
	d.fences[f] = true
	delete(d.pending, f)
	return Success
}

func (d *fakeDevice) ResetFence(f Handle) Result {
	d.fences[f] = false
	return Success
}

func (d *fakeDevice) CreateSemaphore() (Handle, Result) { return d.create("semaphore"), Success }
func (d *fakeDevice) DestroySemaphore(s Handle)         { d.destroy("semaphore", s) }

func (d *fakeDevice) AllocateCommandBuffer(bool) (Handle, Result) {
	return d.create("command buffer"), Success
}

func (d *fakeDevice) FreeCommandBuffer(cb Handle) { d.destroy("command buffer", cb) }

func (d *fakeDevice) BeginCommandBuffer(cb Handle, _ CommandBufferUsage) Result {
	d.record("begin command buffer %d", cb)
	return Success
}

func (d *fakeDevice) EndCommandBuffer(Handle) Result   { return Success }
func (d *fakeDevice) ResetCommandBuffer(Handle) Result { return Success }

func (d *fakeDevice) CmdSetViewport(_ Handle, vp Viewport) { d.viewports = append(d.viewports, vp) }
func (d *fakeDevice) CmdSetScissor(_ Handle, r Rect)       { d.scissors = append(d.scissors, r) }

func (d *fakeDevice) CmdBeginRenderPass(_ Handle, info RenderPassBeginInfo) {
	d.begins = append(d.begins, info)
}

func (d *fakeDevice) CmdEndRenderPass(Handle) {}

func (d *fakeDevice) CreateSwapchain(info SwapchainCreateInfo) (Handle, []Handle, Result) {
	if d.swapchainResult != Success {
		return NullHandle, nil, d.swapchainResult
	}
	d.swapInfos = append(d.swapInfos, info)
	h := d.create("swapchain")
	n := info.MinImageCount
	if d.imageCount > 0 {
		n = d.imageCount
	}
	images := make([]Handle, n)
	for i := range images {
		d.next++
		images[i] = d.next
	}
	d.acquireCount = 0
	return h, images, Success
}

func (d *fakeDevice) DestroySwapchain(sc Handle) { d.destroy("swapchain", sc) }

// AcquireNextImage hands out images round robin.
func (d *fakeDevice) AcquireNextImage(_ Handle, _ uint64, _, _ Handle) (uint32, Result) {
	if r := pop(&d.acquireResults); r != Success && r != Suboptimal {
		return 0, r
	}
	n := uint32(len(d.swapInfos))
	if n == 0 {
		return 0, ErrorInitializationFailed
	}
	count := d.swapInfos[n-1].MinImageCount
	if d.imageCount > 0 {
		count = d.imageCount
	}
	index := d.acquireCount % count
	d.acquireCount++
	d.record("acquire %d", index)
	return index, Success
}

func (d *fakeDevice) CreateImage(ImageCreateInfo) (Handle, Result) { return d.create("image"), Success }
func (d *fakeDevice) DestroyImage(img Handle)                     { d.destroy("image", img) }

func (d *fakeDevice) CreateImageView(Handle, Format, ImageAspect) (Handle, Result) {
	return d.create("image view"), Success
}

func (d *fakeDevice) DestroyImageView(v Handle) { d.destroy("image view", v) }

func (d *fakeDevice) CreateRenderPass(info RenderPassCreateInfo) (Handle, Result) {
	if d.renderPassResult != Success {
		return NullHandle, d.renderPassResult
	}
	d.passInfos = append(d.passInfos, info)
	return d.create("render pass"), Success
}

func (d *fakeDevice) DestroyRenderPass(rp Handle) { d.destroy("render pass", rp) }

func (d *fakeDevice) CreateFramebuffer(Handle, []Handle, uint32, uint32) (Handle, Result) {
	return d.create("framebuffer"), Success
}

func (d *fakeDevice) DestroyFramebuffer(fb Handle) { d.destroy("framebuffer", fb) }

func (d *fakeDevice) QueueSubmit(_ Handle, info SubmitInfo, fence Handle) Result {
	if d.submitResult != Success {
		return d.submitResult
	}
	d.submits = append(d.submits, info)
	d.pending[fence] = true
	d.record("submit %d", info.CommandBuffer)
	return Success
}

func (d *fakeDevice) QueuePresent(_ Handle, info PresentInfo) Result {
	d.presents = append(d.presents, info)
	d.record("present %d", info.ImageIndex)
	return pop(&d.presentResults)
}

func (d *fakeDevice) Close() {
	d.closed = true
	d.record("close")
}
