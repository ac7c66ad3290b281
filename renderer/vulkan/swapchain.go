package vulkan

import (
	"errors"
	"fmt"
	"math"
)

// Swapchain owns the presentable images, one view per image, the depth
// attachment they share and the framebuffers bound to them.
type Swapchain struct {
	dev       Device
	preferred PresentMode

	Handle            Handle
	ImageFormat       SurfaceFormat
	PresentMode       PresentMode
	Extent            Extent
	ImageCount        uint32
	MaxFramesInFlight uint32
	Images            []Handle
	Views             []Handle
	DepthAttachment   *Image
	Framebuffers      []*Framebuffer
}

// NewSwapchain negotiates format, present mode and image count with the
// surface and creates the images, their views and a depth attachment of
// the given size. preferred is used when the surface supports it; FIFO is
// the fallback.
func NewSwapchain(dev Device, width, height uint32, preferred PresentMode) (*Swapchain, error) {
	s := &Swapchain{dev: dev, preferred: preferred}
	if err := s.create(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Recreate destroys and rebuilds the swapchain in place at the new size,
// re-reading surface support and the depth format. The device must be
// idle.
func (s *Swapchain) Recreate(width, height uint32) error {
	s.destroy()
	return s.create(width, height)
}

// Destroy releases the framebuffers, depth attachment, views and the
// swapchain itself.
func (s *Swapchain) Destroy() {
	s.destroy()
}

func (s *Swapchain) create(width, height uint32) error {
	support, err := s.dev.QuerySwapchainSupport()
	if err != nil {
		return fmt.Errorf("query swapchain support: %w", err)
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.New("surface reports no formats or present modes")
	}
	caps := support.Capabilities

	s.ImageFormat = chooseSurfaceFormat(support.Formats)
	s.PresentMode = choosePresentMode(support.PresentModes, s.preferred)
	s.Extent = chooseExtent(caps, width, height)

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	handle, images, res := s.dev.CreateSwapchain(SwapchainCreateInfo{
		MinImageCount: imageCount,
		Format:        s.ImageFormat,
		Extent:        s.Extent,
		PresentMode:   s.PresentMode,
		PreTransform:  caps.CurrentTransform,
	})
	if res != Success {
		return resultError("create swapchain", res)
	}
	if len(images) == 0 {
		s.dev.DestroySwapchain(handle)
		return errors.New("swapchain has no images")
	}
	s.Handle = handle
	s.Images = images
	s.ImageCount = uint32(len(images))
	s.MaxFramesInFlight = max(s.ImageCount-1, 1)

	s.Views = make([]Handle, 0, len(images))
	for i, img := range images {
		view, res := s.dev.CreateImageView(img, s.ImageFormat.Format, ImageAspectColor)
		if res != Success {
			s.destroy()
			return fmt.Errorf("image view %d: %w", i, resultError("create image view", res))
		}
		s.Views = append(s.Views, view)
	}

	depthFormat, err := s.dev.DetectDepthFormat()
	if err != nil {
		s.destroy()
		return fmt.Errorf("detect depth format: %w", err)
	}
	depth, err := NewImage(s.dev, ImageCreateInfo{
		Width:  s.Extent.Width,
		Height: s.Extent.Height,
		Format: depthFormat,
		Usage:  ImageUsageDepthStencilAttachment,
	}, ImageAspectDepth)
	if err != nil {
		s.destroy()
		return fmt.Errorf("depth attachment: %w", err)
	}
	s.DepthAttachment = depth
	s.Framebuffers = make([]*Framebuffer, s.ImageCount)
	return nil
}

func (s *Swapchain) destroy() {
	for i, fb := range s.Framebuffers {
		if fb != nil {
			fb.Destroy()
			s.Framebuffers[i] = nil
		}
	}
	if s.DepthAttachment != nil {
		s.DepthAttachment.Destroy()
		s.DepthAttachment = nil
	}
	for _, view := range s.Views {
		s.dev.DestroyImageView(view)
	}
	s.Views = nil
	if s.Handle != NullHandle {
		// Swapchain images are owned by the swapchain itself.
		s.dev.DestroySwapchain(s.Handle)
		s.Handle = NullHandle
	}
	s.Images = nil
}

// AcquireNextImageIndex requests the next presentable image. sem (and
// fence, if not nil) are signaled once the image can be written. An
// error matching ErrOutOfDate means the swapchain must be recreated
// before rendering again.
func (s *Swapchain) AcquireNextImageIndex(timeout uint64, sem *Semaphore, fence *Fence) (uint32, error) {
	semHandle, fenceHandle := NullHandle, NullHandle
	if sem != nil {
		semHandle = sem.Handle
	}
	if fence != nil {
		fenceHandle = fence.Handle
	}
	index, res := s.dev.AcquireNextImage(s.Handle, timeout, semHandle, fenceHandle)
	switch res {
	case Success, Suboptimal:
		// A suboptimal image is still presentable; Present reports it.
		return index, nil
	}
	return 0, resultError("acquire next image", res)
}

// Present queues image index for display once wait is signaled. An error
// matching ErrOutOfDate is not fatal: the caller should recreate the
// swapchain before the next frame.
func (s *Swapchain) Present(queue Handle, wait *Semaphore, index uint32) error {
	res := s.dev.QueuePresent(queue, PresentInfo{
		WaitSemaphore: wait.Handle,
		Swapchain:     s.Handle,
		ImageIndex:    index,
	})
	if res != Success {
		return resultError("present", res)
	}
	return nil
}

func chooseSurfaceFormat(available []SurfaceFormat) SurfaceFormat {
	for _, f := range available {
		if f.Format == FormatB8g8r8a8Srgb && f.ColorSpace == ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return available[0]
}

func choosePresentMode(available []PresentMode, preferred PresentMode) PresentMode {
	for _, m := range available {
		if m == preferred {
			return m
		}
	}
	return PresentModeFifo
}

func chooseExtent(caps SurfaceCapabilities, width, height uint32) Extent {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(val, lo, hi uint32) uint32 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
