package vulkan

// Framebuffer binds a set of image views to a render pass. It refers to
// the views by handle, so it must be rebuilt whenever they are.
type Framebuffer struct {
	dev         Device
	Handle      Handle
	Attachments []Handle
	RenderPass  *RenderPass
	Width       uint32
	Height      uint32
}

func NewFramebuffer(dev Device, rp *RenderPass, width, height uint32, attachments []Handle) (*Framebuffer, error) {
	views := make([]Handle, len(attachments))
	copy(views, attachments)

	h, res := dev.CreateFramebuffer(rp.Handle, views, width, height)
	if res != Success {
		return nil, resultError("create framebuffer", res)
	}
	return &Framebuffer{
		dev:         dev,
		Handle:      h,
		Attachments: views,
		RenderPass:  rp,
		Width:       width,
		Height:      height,
	}, nil
}

func (fb *Framebuffer) Destroy() {
	if fb.Handle != NullHandle {
		fb.dev.DestroyFramebuffer(fb.Handle)
	}
	fb.Handle = NullHandle
	fb.Attachments = nil
	fb.RenderPass = nil
}
