package vulkan

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := SurfaceFormat{Format: FormatB8g8r8a8Srgb, ColorSpace: ColorSpaceSrgbNonlinear}
	unorm := SurfaceFormat{Format: FormatB8g8r8a8Unorm, ColorSpace: ColorSpaceSrgbNonlinear}

	assert.Equal(t, srgb, chooseSurfaceFormat([]SurfaceFormat{unorm, srgb}))
	assert.Equal(t, unorm, chooseSurfaceFormat([]SurfaceFormat{unorm}))
}

func TestChoosePresentMode(t *testing.T) {
	modes := []PresentMode{PresentModeFifo, PresentModeImmediate}
	assert.Equal(t, PresentModeImmediate, choosePresentMode(modes, PresentModeImmediate))
	assert.Equal(t, PresentModeFifo, choosePresentMode(modes, PresentModeMailbox))
}

func TestParsePresentMode(t *testing.T) {
	m, ok := ParsePresentMode("fifo_relaxed")
	assert.True(t, ok)
	assert.Equal(t, PresentModeFifoRelaxed, m)

	m, ok = ParsePresentMode("vsync")
	assert.False(t, ok)
	assert.Equal(t, PresentModeFifo, m)
}

func TestChooseExtent(t *testing.T) {
	fixed := SurfaceCapabilities{CurrentExtent: Extent{Width: 640, Height: 480}}
	assert.Equal(t, Extent{Width: 640, Height: 480}, chooseExtent(fixed, 1920, 1080))

	free := SurfaceCapabilities{
		CurrentExtent:  Extent{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: Extent{Width: 100, Height: 100},
		MaxImageExtent: Extent{Width: 2000, Height: 1000},
	}
	assert.Equal(t, Extent{Width: 800, Height: 600}, chooseExtent(free, 800, 600))
	assert.Equal(t, Extent{Width: 2000, Height: 100}, chooseExtent(free, 5000, 10))
}

func TestSwapchainImageCount(t *testing.T) {
	tests := []struct {
		name      string
		min, max  uint32
		images    uint32
		inFlight  uint32
		requested uint32
	}{
		{"triple", 2, 8, 3, 2, 3},
		{"double", 1, 0, 2, 1, 2},
		{"clamped to max", 3, 3, 3, 2, 3},
		{"single", 1, 1, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.support.Capabilities.MinImageCount = tt.min
			dev.support.Capabilities.MaxImageCount = tt.max

			sc, err := NewSwapchain(dev, 320, 240, PresentModeFifo)
			require.NoError(t, err)
			assert.Equal(t, tt.requested, dev.swapInfos[0].MinImageCount)
			assert.Equal(t, tt.images, sc.ImageCount)
			assert.Equal(t, tt.inFlight, sc.MaxFramesInFlight)
			assert.Len(t, sc.Views, int(tt.images))
			assert.Len(t, sc.Framebuffers, int(tt.images))
		})
	}
}

func TestSwapchainNoFormats(t *testing.T) {
	dev := newFakeDevice()
	dev.support.Formats = nil
	_, err := NewSwapchain(dev, 320, 240, PresentModeFifo)
	require.Error(t, err)
	assert.Empty(t, dev.live)
}

func TestSwapchainRecreate(t *testing.T) {
	dev := newFakeDevice()
	sc, err := NewSwapchain(dev, 320, 240, PresentModeFifo)
	require.NoError(t, err)
	old := sc.Handle

	dev.depthFormat = FormatD24UnormS8Uint
	require.NoError(t, sc.Recreate(640, 480))
	assert.NotEqual(t, old, sc.Handle)
	assert.Equal(t, Extent{Width: 640, Height: 480}, sc.Extent)
	assert.Equal(t, FormatD24UnormS8Uint, sc.DepthAttachment.Format, "depth format is detected again")
	assert.Equal(t, uint32(640), sc.DepthAttachment.Width)

	assert.Equal(t, 1, dev.liveCount("swapchain"))
	assert.Equal(t, 1, dev.liveCount("image"))
	assert.Equal(t, int(sc.ImageCount)+1, dev.liveCount("image view"))

	sc.Destroy()
	sc.Destroy()
	assert.Empty(t, dev.live)
}

func TestSwapchainAcquireAndPresent(t *testing.T) {
	dev := newFakeDevice()
	sc, err := NewSwapchain(dev, 320, 240, PresentModeFifo)
	require.NoError(t, err)
	sem, err := NewSemaphore(dev)
	require.NoError(t, err)

	dev.acquireResults = []Result{Suboptimal, ErrorOutOfDate}
	index, err := sc.AcquireNextImageIndex(1, sem, nil)
	require.NoError(t, err, "a suboptimal image can still be used")
	assert.Equal(t, uint32(0), index)

	_, err = sc.AcquireNextImageIndex(1, sem, nil)
	assert.ErrorIs(t, err, ErrOutOfDate)

	require.NoError(t, sc.Present(2, sem, 1))
	assert.Equal(t, PresentInfo{WaitSemaphore: sem.Handle, Swapchain: sc.Handle, ImageIndex: 1}, dev.presents[0])

	dev.presentResults = []Result{ErrorOutOfDate}
	assert.ErrorIs(t, sc.Present(2, sem, 0), ErrOutOfDate)
}

func TestFramebuffer(t *testing.T) {
	dev := newFakeDevice()
	rp, err := NewRenderPass(dev, FormatB8g8r8a8Srgb, FormatD32Sfloat, mgl32.Vec4{0, 0, 10, 10}, mgl32.Vec4{}, 1, 0)
	require.NoError(t, err)

	views := []Handle{7, 8}
	fb, err := NewFramebuffer(dev, rp, 10, 10, views)
	require.NoError(t, err)
	views[0] = 99
	assert.Equal(t, []Handle{7, 8}, fb.Attachments, "attachments are copied")
	assert.Same(t, rp, fb.RenderPass)

	fb.Destroy()
	assert.Equal(t, NullHandle, fb.Handle)
	assert.Nil(t, fb.Attachments)
	assert.Zero(t, dev.liveCount("framebuffer"))
}

func TestRenderPassBeginRequiresRecording(t *testing.T) {
	dev := newFakeDevice()
	rp, err := NewRenderPass(dev, FormatB8g8r8a8Srgb, FormatD32Sfloat, mgl32.Vec4{0, 0, 10, 10}, mgl32.Vec4{}, 1, 0)
	require.NoError(t, err)
	fb, err := NewFramebuffer(dev, rp, 10, 10, []Handle{1, 2})
	require.NoError(t, err)
	cb, err := AllocateCommandBuffer(dev, true)
	require.NoError(t, err)

	assert.ErrorIs(t, rp.Begin(cb, fb), ErrInvalidState)
	require.NoError(t, cb.Begin(false, false, false))
	assert.ErrorIs(t, rp.Begin(cb, nil), ErrInvalidState)

	rp.SetExtent(20, 30)
	require.NoError(t, rp.Begin(cb, fb))
	assert.Equal(t, Rect{Width: 20, Height: 30}, dev.begins[0].Area)
}
